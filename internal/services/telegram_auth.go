package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
)

var (
	ErrInitDataInvalid = errors.New("invalid init data")
	ErrInitDataExpired = errors.New("init data expired")
)

// InitData is the validated payload a mini-app receives from Telegram.
type InitData struct {
	QueryID    string
	User       models.TelegramUser
	StartParam string
	AuthDate   time.Time
}

// ValidateInitData checks the hash Telegram computes over the init data with
// the bot token, as documented for Web Apps. maxAge <= 0 disables the
// freshness check.
func ValidateInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitDataInvalid, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInitDataInvalid)
	}

	if !hmac.Equal([]byte(hash), []byte(SignInitData(values, botToken))) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInitDataInvalid)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInitDataInvalid)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	var user models.TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: bad user", ErrInitDataInvalid)
	}

	return &InitData{
		QueryID:    values.Get("query_id"),
		User:       user,
		StartParam: values.Get("start_param"),
		AuthDate:   authDate,
	}, nil
}

// SignInitData returns the expected hash of the values, ignoring any hash
// already present.
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(pairs, "\n")))

	return hex.EncodeToString(h.Sum(nil))
}
