package backend

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatDecimal renders v with two fixed decimals. Empty or non-numeric
// input yields "".
func FormatDecimal(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return ""
	}
	return d.StringFixed(2)
}

// FormatDateForSave renders t as yyyy-mm-dd; the zero time yields "".
func FormatDateForSave(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// ParameterFromURL returns the first value of a query parameter and whether
// it was present.
func ParameterFromURL(rawURL, name string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	vals, ok := u.Query()[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
