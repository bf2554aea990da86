package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const referralCodePrefix = "ref-"

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%s",
		time.Now().UTC().Format("20060102"),
		uuid.NewString())
}

func GenerateSessionID() string {
	return uuid.NewString()
}

// ReferralCodeFor derives the share code of a user from its Telegram id.
func ReferralCodeFor(userID string) string {
	return referralCodePrefix + userID
}

// NormalizeReferralCode accepts a bare user id or a prefixed code, as found in
// t.me start links.
func NormalizeReferralCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, referralCodePrefix) {
		return raw
	}
	return referralCodePrefix + raw
}

// ParseAmount reads a numeric cell. Unparseable values count as zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(normalizeSeparators(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// normalizeSeparators turns a hand typed number into decimal notation. With
// both separators present the last one is the decimal point. A lone comma is
// a thousands separator only when exactly three digits follow it.
func normalizeSeparators(raw string) string {
	raw = strings.ReplaceAll(raw, " ", "")

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	switch {
	case lastComma < 0:
		if strings.Count(raw, ".") > 1 {
			return strings.ReplaceAll(raw, ".", "")
		}
		return raw
	case lastDot > lastComma:
		return strings.ReplaceAll(raw, ",", "")
	case lastDot >= 0:
		return strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
	case strings.Count(raw, ",") > 1, len(raw)-lastComma-1 == 3:
		return strings.ReplaceAll(raw, ",", "")
	default:
		return strings.Replace(raw, ",", ".", 1)
	}
}

// ParseTime reads a timestamp cell written as RFC 3339. Zero time when empty
// or invalid.
func ParseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
