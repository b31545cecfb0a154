package tsgen

import (
	"strings"
	"unicode"
)

// convertToPascalCase turns an endpoint identifier such as "users.show" into a
// TypeScript name ("UsersShow"). Any run of characters that cannot appear in
// an identifier acts as a word break. A leading digit gets an underscore.
func convertToPascalCase(input string) string {
	words := strings.FieldsFunc(input, func(r rune) bool {
		return r == '_' || isIllegalCharacter(r)
	})

	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	out := b.String()
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

func isIllegalCharacter(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
