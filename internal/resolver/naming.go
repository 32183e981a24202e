package resolver

import "strings"

// snakeCase converts camelCase or PascalCase to snake_case, treating runs of
// uppercase letters as a single word: "userId" and "UserID" both become
// "user_id", "HTMLBody" becomes "html_body".
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if isUpper(r) {
			prevLower := i > 0 && !isUpper(runes[i-1]) && runes[i-1] != '_'
			nextLower := i+1 < len(runes) && !isUpper(runes[i+1]) && runes[i+1] != '_'
			if i > 0 && (prevLower || (isUpper(runes[i-1]) && nextLower)) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
