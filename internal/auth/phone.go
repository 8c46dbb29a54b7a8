package auth

import (
	"regexp"
	"strings"

	"messenger/backend/internal/apperrors"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{4,8}$`)
	phoneJunk    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\t", "")
)

// NormalizePhone returns the canonical "+<digits>" form. Russian national
// formats (8XXXXXXXXXX and bare 9XXXXXXXXX) are rewritten to +7.
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneJunk.Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(cleaned) {
		return "", apperrors.ErrInvalidPhone
	}

	hasPlus := strings.HasPrefix(cleaned, "+")
	digits := strings.TrimPrefix(cleaned, "+")

	if !hasPlus {
		switch {
		case len(digits) == 11 && digits[0] == '8':
			digits = "7" + digits[1:]
		case len(digits) == 10 && digits[0] == '9':
			digits = "7" + digits
		}
	}
	return "+" + digits, nil
}

// MaskPhone keeps the first two and the last two characters.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

func validCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}
