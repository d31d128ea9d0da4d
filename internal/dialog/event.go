// Package dialog implements the stack-based state machine that drives a
// question flow: forward transitions on accepted answers, arbitrary backward
// navigation, and a Complete signal once the terminal step is answered.
// The engine does no I/O; the completion pipeline lives in the assistant
// service.
package dialog

import (
	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
)

// Event is one inbound user action. Exactly one of Select, FreeText or Back.
type Event interface {
	isEvent()
}

// Select is a menu option tap on a specific step.
type Select struct {
	Step  domain.StepID
	Value string
}

// FreeText is typed input for the current step.
type FreeText struct {
	Text string
}

// Back requests a return to the previous step.
type Back struct{}

func (Select) isEvent()   {}
func (FreeText) isEvent() {}
func (Back) isEvent()     {}

// Prompt is the outbound question surface handed to the transport layer.
type Prompt struct {
	Step        domain.StepID   `json:"step"`
	Text        string          `json:"prompt"`
	Options     []schema.Option `json:"options,omitempty"`
	AllowCustom bool            `json:"allow_custom,omitempty"`
}

// OutcomeKind tags what Advance produced.
type OutcomeKind int

const (
	// OutcomePrompt carries the next (or re-entered) step's prompt.
	OutcomePrompt OutcomeKind = iota
	// OutcomeReject means the input failed validation; session unchanged.
	OutcomeReject
	// OutcomeAtStart means back was requested with no previous step.
	OutcomeAtStart
	// OutcomeComplete carries the final answers snapshot.
	OutcomeComplete
)

// Outcome is the result of one engine transition.
type Outcome struct {
	Kind    OutcomeKind
	Prompt  *Prompt
	Reason  string
	Answers domain.Answers
}
