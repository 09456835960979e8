// Package spelling flags words of a definition that none of the configured
// dictionaries know.
package spelling

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Dictionary is a set of known words, keyed by their folded form.
type Dictionary struct {
	Language string
	words    map[string]struct{}
}

// NewDictionary builds a dictionary from a word list.
func NewDictionary(language string, words ...string) *Dictionary {
	dictionary := &Dictionary{
		Language: language,
		words:    make(map[string]struct{}, len(words)),
	}
	for _, word := range words {
		dictionary.Add(word)
	}
	return dictionary
}

// LoadDictionary reads a dictionary file. See ReadDictionary for the format.
func LoadDictionary(language, path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s dictionary: %w", language, err)
	}
	defer file.Close()

	dictionary, err := ReadDictionary(language, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s dictionary %s: %w", language, path, err)
	}
	return dictionary, nil
}

// ReadDictionary reads one word per line. Hunspell .dic files work too: the
// leading entry count and the /FLAGS suffixes are ignored, as are blank lines
// and lines starting with '#'.
func ReadDictionary(language string, reader io.Reader) (*Dictionary, error) {
	dictionary := NewDictionary(language)

	scanner := bufio.NewScanner(reader)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			line = strings.TrimPrefix(line, "\ufeff")
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if slash := strings.IndexByte(line, '/'); slash >= 0 {
			line = line[:slash]
		}
		dictionary.Add(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dictionary, nil
}

// Add inserts a word.
func (dictionary *Dictionary) Add(word string) {
	if folded := fold(word); folded != "" {
		dictionary.words[folded] = struct{}{}
	}
}

// Contains reports whether the word is known, ignoring case and accents.
func (dictionary *Dictionary) Contains(word string) bool {
	_, known := dictionary.words[fold(word)]
	return known
}

// Len returns the number of distinct folded words.
func (dictionary *Dictionary) Len() int {
	return len(dictionary.words)
}

// fold lower-cases the word and strips combining marks.
func fold(word string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(word)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(word))
	}
	return folded
}
