package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Russian mobile numbers only: +7XXXXXXXXXX or 8XXXXXXXXXX
	rePhone = regexp.MustCompile(`^(\+7|8)\d{10}$`)
	reID    = regexp.MustCompile(`^[0-9]{1,18}$`)
)

// Phone normalizes and checks a customer phone number. Any shape other than
// +7XXXXXXXXXX / 8XXXXXXXXXX is rejected; callers re-prompt instead of failing.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 12 {
		return "", false
	}
	return s, rePhone.MatchString(s)
}

// Qty parses a quantity, clamping to [1,50].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// ID validates a numeric resource identifier (model/product/task refs).
func ID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !reID.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
