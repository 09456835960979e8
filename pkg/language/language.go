// Package language decides whether a taxonomy label is English or French.
package language

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Language is one of the two languages a label can be classified as.
type Language string

const (
	English Language = "en"
	French  Language = "fr"
)

// Classifier assigns a language to a non-empty label.
type Classifier interface {
	Classify(label string) Language
}

// DetectorClassifier is a statistical classifier restricted to English and
// French. Undetermined input is reported as French.
type DetectorClassifier struct {
	detector lingua.LanguageDetector
}

// NewDetectorClassifier builds the detector. Building loads the language
// models, so one classifier should be shared for a run.
func NewDetectorClassifier() *DetectorClassifier {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.French).
		Build()
	return &DetectorClassifier{detector: detector}
}

// Classify implements Classifier.
func (classifier *DetectorClassifier) Classify(label string) Language {
	detected, ok := classifier.detector.DetectLanguageOf(label)
	if ok && detected == lingua.English {
		return English
	}
	return French
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(label string) Language

// Classify implements Classifier.
func (fn ClassifierFunc) Classify(label string) Language {
	return fn(label)
}

// EnglishLabelSet is an insertion-ordered set of labels classified English.
type EnglishLabelSet struct {
	mu     sync.Mutex
	order  []string
	labels map[string]struct{}
}

// NewEnglishLabelSet creates an empty set.
func NewEnglishLabelSet() *EnglishLabelSet {
	return &EnglishLabelSet{labels: make(map[string]struct{})}
}

// Add inserts label; it reports whether the label was new.
func (set *EnglishLabelSet) Add(label string) bool {
	set.mu.Lock()
	defer set.mu.Unlock()

	if _, exists := set.labels[label]; exists {
		return false
	}
	set.labels[label] = struct{}{}
	set.order = append(set.order, label)
	return true
}

// Contains reports whether label was added.
func (set *EnglishLabelSet) Contains(label string) bool {
	set.mu.Lock()
	defer set.mu.Unlock()

	_, exists := set.labels[label]
	return exists
}

// Labels returns the labels in insertion order.
func (set *EnglishLabelSet) Labels() []string {
	set.mu.Lock()
	defer set.mu.Unlock()

	return append([]string(nil), set.order...)
}

// Len returns the number of labels.
func (set *EnglishLabelSet) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()

	return len(set.order)
}

// Tracker classifies labels and collects every English one, whether or not an
// English triple ends up being emitted for it.
type Tracker struct {
	classifier Classifier
	english    *EnglishLabelSet
	logger     *slog.Logger
}

// NewTracker wraps classifier. A nil set gets a fresh one.
func NewTracker(classifier Classifier, english *EnglishLabelSet, logger *slog.Logger) *Tracker {
	if english == nil {
		english = NewEnglishLabelSet()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{classifier: classifier, english: english, logger: logger}
}

// Classify returns the label's language. Empty labels are not classified and
// report ok=false.
func (tracker *Tracker) Classify(label string) (Language, bool) {
	if strings.TrimSpace(label) == "" {
		return "", false
	}

	language := tracker.classifier.Classify(label)
	if language == English && tracker.english.Add(label) {
		tracker.logger.Debug("english label", slog.String("label", label))
	}
	return language, true
}

// EnglishLabels returns the set the tracker fills.
func (tracker *Tracker) EnglishLabels() *EnglishLabelSet {
	return tracker.english
}
