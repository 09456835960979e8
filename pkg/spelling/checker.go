package spelling

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Misspelling is a token no dictionary recognized.
type Misspelling struct {
	Word    string `json:"word"`
	Subject string `json:"subject,omitempty"`
}

// Checker looks tokens up in every dictionary; a token known to any of them
// is accepted.
type Checker struct {
	dictionaries []*Dictionary
	logger       *slog.Logger
}

// NewChecker creates a checker over the given dictionaries.
func NewChecker(logger *slog.Logger, dictionaries ...*Dictionary) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{dictionaries: dictionaries, logger: logger}
}

// Check returns the unknown tokens of text in order of appearance, each
// reported once. subject identifies the node in the findings and the log.
func (checker *Checker) Check(text, subject string) []Misspelling {
	var findings []Misspelling
	seen := make(map[string]bool)

	for _, token := range Tokenize(text) {
		if seen[token] || checker.known(token) {
			continue
		}
		seen[token] = true
		findings = append(findings, Misspelling{Word: token, Subject: subject})
	}

	if len(findings) > 0 {
		words := make([]string, len(findings))
		for index, finding := range findings {
			words[index] = finding.Word
		}
		checker.logger.Info("possible misspellings",
			slog.String("subject", subject),
			slog.String("words", strings.Join(words, ", ")))
	}

	return findings
}

func (checker *Checker) known(token string) bool {
	for _, dictionary := range checker.dictionaries {
		if dictionary.Contains(token) {
			return true
		}
	}
	return false
}

// Tokenize splits text into letter runs. Apostrophes and hyphens separate
// tokens, so "l'énergie" yields "énergie". Tokens shorter than two runes and
// tokens glued to digits are dropped.
func Tokenize(text string) []string {
	var tokens []string

	for _, field := range strings.FieldsFunc(text, func(char rune) bool {
		return !unicode.IsLetter(char) && !unicode.IsDigit(char) && !unicode.Is(unicode.Mn, char)
	}) {
		if strings.IndexFunc(field, unicode.IsDigit) >= 0 {
			continue
		}
		if utf8.RuneCountInString(field) < 2 {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}
