package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	appmodels "github.com/Shigyn/airdrop-bot-sub000/internal/models"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
)

const parseModeHTML = "HTML"

// Sender is the part of *bot.Bot the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier sends outbound messages through the Bot API. It never
// polls for updates.
type TelegramNotifier struct {
	log       *slog.Logger
	sender    Sender
	webAppURL string
}

func NewTelegramNotifier(log *slog.Logger, token, webAppURL string) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return NewTelegramNotifierWithSender(log, b, webAppURL), nil
}

func NewTelegramNotifierWithSender(log *slog.Logger, sender Sender, webAppURL string) *TelegramNotifier {
	return &TelegramNotifier{
		log:       log,
		sender:    sender,
		webAppURL: webAppURL,
	}
}

func (n *TelegramNotifier) NotifyReferral(ctx context.Context, referrer, referee appmodels.User, reward decimal.Decimal) error {
	chatID, err := strconv.ParseInt(referrer.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("referrer %q is not a chat id: %w", referrer.ID, err)
	}

	name := referee.Username
	if name == "" {
		name = referee.ID
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf("🎉 <b>%s</b> joined with your link. You earned <b>%s</b> tokens.",
			html.EscapeString(name), reward.String()),
		ParseMode: parseModeHTML,
	}
	if n.webAppURL != "" {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "Open app", WebApp: &models.WebAppInfo{URL: n.webAppURL}},
			}},
		}
	}

	if _, err := n.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send referral message: %w", err)
	}

	n.log.Info("referral notification sent",
		slog.String("op", "notify.TelegramNotifier.NotifyReferral"),
		slog.Int64("chat_id", chatID))

	return nil
}
