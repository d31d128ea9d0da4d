package dialog

import (
	"strconv"
	"strings"

	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
)

// User-facing rejection messages.
const (
	msgNotANumber   = "Пожалуйста, введите значение числом."
	msgEmptyInput   = "Пожалуйста, введите непустой ответ."
	msgUnknownStep  = "Этот вопрос уже неактуален."
	msgNotInOptions = "Пожалуйста, выберите один из предложенных вариантов."
)

// Engine drives one dialog flow. It is stateless and safe for concurrent use
// across sessions; serialization of transitions for a single session is the
// session store's job.
type Engine struct {
	flow *schema.Schema
}

// NewEngine creates an engine for the given flow.
func NewEngine(flow *schema.Schema) *Engine {
	return &Engine{flow: flow}
}

// Flow returns the flow's name.
func (e *Engine) Flow() string {
	return e.flow.Name
}

// Start creates a session positioned at the first step and returns its prompt.
func (e *Engine) Start(sessionID string) (*domain.Session, Prompt) {
	sess := domain.NewSession(sessionID, e.flow.Name, e.flow.First)
	return sess, e.PromptFor(e.flow.First, sess.Answers)
}

// PromptFor recomputes a step's prompt from the current answers. Option sets
// that depend on earlier answers are rebuilt, never replayed, so a prompt
// reached via "back" reflects the answers as they stand now.
func (e *Engine) PromptFor(id domain.StepID, ans domain.Answers) Prompt {
	st, _ := e.flow.Step(id)
	return Prompt{
		Step:        id,
		Text:        st.Prompt,
		Options:     e.flow.OptionsFor(id, ans),
		AllowCustom: st.Kind != schema.KindMenu || st.AllowCustom,
	}
}

// Advance applies one event to the session and returns what to do next.
// Rejections leave the session untouched.
func (e *Engine) Advance(sess *domain.Session, ev Event) Outcome {
	switch ev := ev.(type) {
	case Back:
		if !sess.Pop() {
			return Outcome{Kind: OutcomeAtStart}
		}
		p := e.PromptFor(sess.CurrentStep(), sess.Answers)
		return Outcome{Kind: OutcomePrompt, Prompt: &p}
	case Select:
		return e.accept(sess, ev.Step, ev.Value, true)
	case FreeText:
		return e.accept(sess, sess.CurrentStep(), ev.Text, false)
	default:
		return reject(msgUnknownStep)
	}
}

func (e *Engine) accept(sess *domain.Session, stepID domain.StepID, value string, selected bool) Outcome {
	current := sess.CurrentStep()
	if stepID != current {
		// Stale tap, e.g. a double-tap on a menu button after the session
		// already advanced.
		return reject(msgUnknownStep)
	}
	st, ok := e.flow.Step(current)
	if !ok {
		return reject(msgUnknownStep)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return reject(msgEmptyInput)
	}

	var answer any
	switch st.Kind {
	case schema.KindNumber:
		n, err := strconv.Atoi(value)
		if err != nil {
			return reject(badNumberMessage(st))
		}
		if n < st.Min || (st.Max > 0 && n > st.Max) {
			return reject(badNumberMessage(st))
		}
		answer = n
	case schema.KindMenu:
		if selected && !optionExists(e.flow.OptionsFor(current, sess.Answers), value) {
			return reject(msgNotInOptions)
		}
		if !selected && !st.AllowCustom {
			return reject(msgNotInOptions)
		}
		answer = value
	default:
		answer = value
	}

	if st.Validate != nil {
		if err := st.Validate(sess.Answers, value); err != nil {
			return reject(err.Error())
		}
	}

	if st.List {
		sess.Answers[st.Key] = []string{value}
	} else {
		sess.Answers[st.Key] = answer
	}

	next, forward := st.Next(sess.Answers)
	if !forward {
		return Outcome{Kind: OutcomeComplete, Answers: sess.Answers.Clone()}
	}
	sess.Push(next)
	p := e.PromptFor(next, sess.Answers)
	return Outcome{Kind: OutcomePrompt, Prompt: &p}
}

func reject(reason string) Outcome {
	return Outcome{Kind: OutcomeReject, Reason: reason}
}

func badNumberMessage(st schema.Step) string {
	if st.BadInput != "" {
		return st.BadInput
	}
	return msgNotANumber
}

func optionExists(opts []schema.Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
