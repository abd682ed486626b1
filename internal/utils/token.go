package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PassTokenPrefix starts every visitor pass token.
const PassTokenPrefix = "SSV-"

// NewPassToken returns a fresh, unguessable visitor pass token suitable for
// encoding in a QR code.
func NewPassToken() string {
	return PassTokenPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewReceiptNumber returns a receipt id of the form RCP-YYYYMMDD-XXXXXXXX
// where the suffix is eight random upper-case hex digits.
func NewReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "RCP-" + now.UTC().Format("20060102") + "-" + suffix
}
