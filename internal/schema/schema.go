// Package schema defines dialog flows as data: the ordered question steps,
// their prompts, menu options and successors. Option sets may depend on
// answers collected earlier, so they are computed, never stored.
package schema

import (
	"fmt"

	"github.com/itpurple/stylist/internal/domain"
)

// Kind describes how a step accepts input.
type Kind int

const (
	// KindMenu offers a fixed option set, optionally with a free-text escape.
	KindMenu Kind = iota
	// KindNumber accepts free-text integers within [Min, Max].
	KindNumber
	// KindText accepts any non-empty free text.
	KindText
)

// Option is one selectable menu entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Step is one question in a flow.
type Step struct {
	ID     domain.StepID
	Key    string // answer key written on success
	Prompt string
	Kind   Kind

	// AllowCustom permits typed free text in addition to the menu options
	// (the "Другое" escape). Meaningful for KindMenu only.
	AllowCustom bool

	// List stores the accepted value as an ordered string list instead of a
	// plain string.
	List bool

	// Min and Max bound KindNumber input. Max == 0 means unbounded above.
	Min, Max int

	// BadInput overrides the generic rejection message for KindNumber steps.
	BadInput string

	// Options computes the current menu from the answers collected so far.
	// Nil for free-text steps.
	Options func(ans domain.Answers) []Option

	// Validate runs an extra check on an accepted value, e.g. rejecting a
	// typed occasion that matches no category. Nil means no extra check.
	Validate func(ans domain.Answers, value string) error

	// Next computes the successor step. ok == false marks the terminal step:
	// answering it completes the dialog.
	Next func(ans domain.Answers) (next domain.StepID, ok bool)
}

// Schema is a complete dialog flow.
type Schema struct {
	Name  string
	First domain.StepID
	steps map[domain.StepID]Step
}

// New builds a Schema from its steps.
func New(name string, first domain.StepID, steps []Step) (*Schema, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("schema %q has no steps", name)
	}
	m := make(map[domain.StepID]Step, len(steps))
	for _, st := range steps {
		if _, dup := m[st.ID]; dup {
			return nil, fmt.Errorf("schema %q: duplicate step %q", name, st.ID)
		}
		if st.Key == "" {
			return nil, fmt.Errorf("schema %q: step %q has no answer key", name, st.ID)
		}
		m[st.ID] = st
	}
	if _, ok := m[first]; !ok {
		return nil, fmt.Errorf("schema %q: first step %q not defined", name, first)
	}
	return &Schema{Name: name, First: first, steps: m}, nil
}

// Step looks up a step by id.
func (s *Schema) Step(id domain.StepID) (Step, bool) {
	st, ok := s.steps[id]
	return st, ok
}

// OptionsFor computes the menu for a step from the current answers. Returns
// nil for free-text steps.
func (s *Schema) OptionsFor(id domain.StepID, ans domain.Answers) []Option {
	st, ok := s.steps[id]
	if !ok || st.Options == nil {
		return nil
	}
	return st.Options(ans)
}

// staticOptions wraps a fixed option list whose labels double as values.
func staticOptions(values []string) func(domain.Answers) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: v, Value: v}
	}
	return func(domain.Answers) []Option { return opts }
}

// linearNext chains a step to a fixed successor.
func linearNext(next domain.StepID) func(domain.Answers) (domain.StepID, bool) {
	return func(domain.Answers) (domain.StepID, bool) { return next, true }
}

// terminal marks the step whose completion triggers the outfit pipeline.
func terminal() func(domain.Answers) (domain.StepID, bool) {
	return func(domain.Answers) (domain.StepID, bool) { return "", false }
}
