package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// DefaultTimezone is where a puzzle day starts and ends.
const DefaultTimezone = "Europe/Madrid"

const dateLayout = "2006-01-02"

// DateKey returns YYYY-MM-DD for t as seen in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// ParseDate checks that s is a YYYY-MM-DD calendar day and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Format(dateLayout), nil
}

// Seed derives a PCG seed pair for a date using HMAC(salt, YYYY-MM-DD).
func Seed(date, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}
