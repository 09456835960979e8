// Package labels normalizes taxonomy labels with ordered character
// substitution rules and records which labels each rule altered.
package labels

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidRule is returned when a rule cannot be compiled.
var ErrInvalidRule = errors.New("invalid label rule")

// Rule replaces every character of From with To, unless the label being
// cleaned is listed in Exceptions. Exceptions ignore the case of the first
// rune, so a cleaned label stays excepted on a later pass.
type Rule struct {
	Name       string   `yaml:"name" json:"name"`
	From       string   `yaml:"from" json:"from"`
	To         string   `yaml:"to" json:"to"`
	Exceptions []string `yaml:"exceptions,omitempty" json:"exceptions,omitempty"`
}

type compiledRule struct {
	Rule
	pattern    *regexp.Regexp
	exceptions map[string]struct{}
}

// Engine applies rules in declaration order. Later rules see the output of
// earlier ones.
type Engine struct {
	rules   []compiledRule
	changes *ChangeLog
	logger  *slog.Logger
}

// NewEngine compiles the rules and registers each of them in changes.
// A nil changes log gets a fresh one; a nil logger uses slog.Default().
func NewEngine(rules []Rule, changes *ChangeLog, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if changes == nil {
		changes = NewChangeLog()
	}

	engine := &Engine{
		rules:   make([]compiledRule, 0, len(rules)),
		changes: changes,
		logger:  logger,
	}

	seen := make(map[string]bool, len(rules))
	for index, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("%w: rule %d has no name", ErrInvalidRule, index)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, rule.Name)
		}
		seen[rule.Name] = true

		pattern, err := characterClass(rule.From)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, rule.Name, err)
		}

		exceptions := make(map[string]struct{}, len(rule.Exceptions))
		for _, exception := range rule.Exceptions {
			exceptions[Capitalize(exception)] = struct{}{}
		}

		engine.rules = append(engine.rules, compiledRule{
			Rule:       rule,
			pattern:    pattern,
			exceptions: exceptions,
		})
		changes.register(rule.Name)
	}

	return engine, nil
}

// characterClass builds a regexp matching any single rune of from. ASCII
// punctuation is escaped so that characters like '-', ']' and '^' stay literal.
func characterClass(from string) (*regexp.Regexp, error) {
	if from == "" {
		return nil, errors.New("empty character set")
	}

	var builder strings.Builder
	builder.WriteByte('[')
	for _, char := range from {
		if char < utf8.RuneSelf && !isASCIIAlphanumeric(char) {
			builder.WriteByte('\\')
		}
		builder.WriteRune(char)
	}
	builder.WriteByte(']')

	return regexp.Compile(builder.String())
}

func isASCIIAlphanumeric(char rune) bool {
	return ('a' <= char && char <= 'z') || ('A' <= char && char <= 'Z') || ('0' <= char && char <= '9')
}

// Rules returns the rules in application order.
func (engine *Engine) Rules() []Rule {
	rules := make([]Rule, len(engine.rules))
	for index, rule := range engine.rules {
		rules[index] = rule.Rule
	}
	return rules
}

// ChangeLog returns the log the engine records into.
func (engine *Engine) ChangeLog() *ChangeLog {
	return engine.changes
}

// Clean applies every rule to label and upper-cases its first rune. The uri
// only identifies the node in diagnostics.
func (engine *Engine) Clean(label, uri string) string {
	if label == "" {
		return label
	}

	current := label
	for _, rule := range engine.rules {
		if !rule.pattern.MatchString(current) {
			continue
		}
		if _, excepted := rule.exceptions[Capitalize(current)]; excepted {
			engine.logger.Debug("label rule skipped for exception",
				slog.String("rule", rule.Name),
				slog.String("label", current),
				slog.String("uri", uri))
			continue
		}

		engine.changes.record(rule.Name, current)
		current = rule.pattern.ReplaceAllLiteralString(current, rule.To)
	}

	return Capitalize(current)
}

// Capitalize upper-cases the first rune and leaves the rest untouched.
func Capitalize(label string) string {
	first, size := utf8.DecodeRuneInString(label)
	if first == utf8.RuneError {
		return label
	}
	upper := unicode.ToUpper(first)
	if upper == first {
		return label
	}
	return string(upper) + label[size:]
}
