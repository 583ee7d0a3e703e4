package auth

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var errBadTimestamp = errors.New("invalid numeric date")

// Timestamp is a JWT NumericDate with exact millisecond resolution. The
// fraction is parsed as decimal digits rather than through float64.
type Timestamp struct {
	time.Time
}

func (t Timestamp) numeric() *jwt.NumericDate {
	if t.IsZero() {
		return nil
	}
	return &jwt.NumericDate{Time: t.Time}
}

// MarshalJSON renders seconds since the epoch with three fractional digits.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	ms := t.UnixMilli()
	sec, frac := ms/1000, ms%1000
	if frac < 0 {
		sec, frac = sec-1, frac+1000
	}
	out := strconv.AppendInt(nil, sec, 10)
	out = append(out, '.')
	if frac < 100 {
		out = append(out, '0')
	}
	if frac < 10 {
		out = append(out, '0')
	}
	return strconv.AppendInt(out, frac, 10), nil
}

// UnmarshalJSON accepts integer or decimal seconds.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	whole, frac, _ := strings.Cut(raw, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || sec < 0 {
		return errBadTimestamp
	}

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		digits, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return errBadTimestamp
		}
		nsec = int64(digits)
		for i := len(frac); i < 9; i++ {
			nsec *= 10
		}
	}

	t.Time = time.Unix(sec, nsec)
	return nil
}
