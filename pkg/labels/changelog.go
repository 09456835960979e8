package labels

import "sync"

// RuleChanges lists the original labels one rule altered, in the order they
// were seen.
type RuleChanges struct {
	Rule   string   `json:"rule"`
	Labels []string `json:"labels"`
}

// ChangeLog maps rule names to the labels they altered. Every rule has an
// entry, possibly empty, in declaration order.
type ChangeLog struct {
	mu      sync.Mutex
	order   []string
	entries map[string][]string
}

// NewChangeLog creates an empty change log.
func NewChangeLog() *ChangeLog {
	return &ChangeLog{entries: make(map[string][]string)}
}

func (changes *ChangeLog) register(rule string) {
	changes.mu.Lock()
	defer changes.mu.Unlock()

	if _, exists := changes.entries[rule]; exists {
		return
	}
	changes.order = append(changes.order, rule)
	changes.entries[rule] = []string{}
}

func (changes *ChangeLog) record(rule, label string) {
	changes.mu.Lock()
	defer changes.mu.Unlock()

	if _, exists := changes.entries[rule]; !exists {
		changes.order = append(changes.order, rule)
	}
	changes.entries[rule] = append(changes.entries[rule], label)
}

// Changes returns the labels altered by rule.
func (changes *ChangeLog) Changes(rule string) []string {
	changes.mu.Lock()
	defer changes.mu.Unlock()

	return append([]string(nil), changes.entries[rule]...)
}

// Entries returns every rule's changes in declaration order.
func (changes *ChangeLog) Entries() []RuleChanges {
	changes.mu.Lock()
	defer changes.mu.Unlock()

	entries := make([]RuleChanges, 0, len(changes.order))
	for _, rule := range changes.order {
		entries = append(entries, RuleChanges{
			Rule:   rule,
			Labels: append([]string{}, changes.entries[rule]...),
		})
	}
	return entries
}

// Total counts recorded changes across all rules.
func (changes *ChangeLog) Total() int {
	changes.mu.Lock()
	defer changes.mu.Unlock()

	total := 0
	for _, labels := range changes.entries {
		total += len(labels)
	}
	return total
}
