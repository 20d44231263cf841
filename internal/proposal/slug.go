package proposal

import (
	"strings"
	"unicode"
)

// Slug turns a company or industry name into a file name prefix: lower
// case, spaces become underscores and anything other than letters, digits,
// '-', '_' and '.' is dropped. An empty result becomes "proposal".
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), "._")
	if s == "" {
		return "proposal"
	}
	return s
}
