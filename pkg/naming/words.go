package naming

import (
	"strings"
	"unicode"
)

// compoundWords are kept as one word when splitting camel case.
var compoundWords = strings.NewReplacer(
	"OAuth", "Oauth",
	"GraphQL", "Graphql",
	"OpenAI", "Openai",
	"GitHub", "Github",
	"GitLab", "Gitlab",
	"LinkedIn", "Linkedin",
	"YouTube", "Youtube",
)

// Words splits an identifier into its words. Camel case humps, digits
// followed by an upper case letter and any non alphanumeric character start
// a new word. The case of the input is preserved.
func Words(s string) []string {
	runes := []rune(compoundWords.Replace(s))
	var words []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return words
}

// UpperSnake converts an identifier to UPPER_SNAKE_CASE.
func UpperSnake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return strings.Join(words, "_")
}
