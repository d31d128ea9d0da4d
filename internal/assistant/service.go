// Package assistant wires the dialog engine to the session store and, once a
// flow completes, runs the fetch → cache → describe → format pipeline.
package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/itpurple/stylist/internal/catalog"
	"github.com/itpurple/stylist/internal/dialog"
	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/session"
	"github.com/itpurple/stylist/internal/store"
	"github.com/itpurple/stylist/internal/stylist"
)

// Greeting is sent on the first contact of a new session.
const Greeting = "Привет! Я помогу тебе подобрать стильный образ. Давай начнем!"

// Fetcher retrieves catalog items for a completed query.
type Fetcher interface {
	Fetch(ctx context.Context, q domain.CatalogQuery) ([]domain.CatalogItem, error)
}

// Describer produces an outfit description; it never fails, degrading to a
// fallback sentence instead.
type Describer interface {
	Describe(ctx context.Context, items []domain.CatalogItem, ans domain.Answers) string
}

// Reply is the transport-facing result of one inbound event.
type Reply struct {
	Type     string `json:"type"` // "prompt", "rejected", "at_start", "result"
	Greeting string `json:"greeting,omitempty"`
	*dialog.Prompt
	Reason   string `json:"reason,omitempty"`
	Document string `json:"document,omitempty"`
}

// Service handles inbound dialog events end to end.
type Service struct {
	engine       *dialog.Engine
	sessions     *session.Store
	fetcher      Fetcher
	cache        store.Repository
	describer    Describer
	fetchTimeout time.Duration
}

// NewService assembles the assistant.
func NewService(engine *dialog.Engine, sessions *session.Store, fetcher Fetcher, cache store.Repository, describer Describer, fetchTimeout time.Duration) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Service{
		engine:       engine,
		sessions:     sessions,
		fetcher:      fetcher,
		cache:        cache,
		describer:    describer,
		fetchTimeout: fetchTimeout,
	}
}

// Open readies the session for a new connection. An unseen id gets a fresh
// session, the greeting and the first prompt; an existing session is resumed
// by re-prompting its current step. No event passes through the engine, so a
// reconnect mid-dialog never consumes input or moves the session.
func (s *Service) Open(sessionID string) Reply {
	var (
		prompt  dialog.Prompt
		created bool
	)

	_ = s.sessions.Do(sessionID, func(sess *domain.Session) (*domain.Session, error) {
		if sess == nil {
			sess, prompt = s.engine.Start(sessionID)
			created = true
			slog.Info("Session started", "session_id", sessionID, "flow", s.engine.Flow())
			return sess, nil
		}
		prompt = s.engine.PromptFor(sess.CurrentStep(), sess.Answers)
		slog.Info("Session resumed", "session_id", sessionID, "step", sess.CurrentStep())
		return sess, nil
	})

	r := Reply{Type: "prompt", Prompt: &prompt}
	if created {
		r.Greeting = Greeting
	}
	return r
}

// HandleEvent applies one inbound event to the session identified by
// sessionID and returns what the transport should show the user. The first
// event for an unseen id creates the session and returns the greeting plus
// the first prompt, whatever the event was. The completion pipeline runs
// after the session lock is released, so one user's pending marketplace call
// never blocks anyone else.
func (s *Service) HandleEvent(ctx context.Context, sessionID string, ev dialog.Event) (Reply, error) {
	var (
		outcome dialog.Outcome
		created bool
	)

	err := s.sessions.Do(sessionID, func(sess *domain.Session) (*domain.Session, error) {
		if sess == nil {
			var p dialog.Prompt
			sess, p = s.engine.Start(sessionID)
			created = true
			outcome = dialog.Outcome{Kind: dialog.OutcomePrompt, Prompt: &p}
			slog.Info("Session started", "session_id", sessionID, "flow", s.engine.Flow())
			return sess, nil
		}
		outcome = s.engine.Advance(sess, ev)
		if outcome.Kind == dialog.OutcomeComplete {
			// Terminal step answered: the session's lifecycle ends here. The
			// pipeline works on the snapshot, not the session.
			slog.Info("Dialog complete", "session_id", sessionID)
			return nil, nil
		}
		return sess, nil
	})
	if err != nil {
		return Reply{}, err
	}

	switch outcome.Kind {
	case dialog.OutcomeReject:
		return Reply{Type: "rejected", Reason: outcome.Reason}, nil
	case dialog.OutcomeAtStart:
		return Reply{Type: "at_start", Reason: "Вы в самом начале диалога. Некуда возвращаться."}, nil
	case dialog.OutcomeComplete:
		return Reply{Type: "result", Document: s.runPipeline(ctx, outcome.Answers)}, nil
	default:
		r := Reply{Type: "prompt", Prompt: outcome.Prompt}
		if created {
			r.Greeting = Greeting
		}
		return r, nil
	}
}

// Reset drops the session, if any.
func (s *Service) Reset(sessionID string) {
	s.sessions.Delete(sessionID)
	slog.Info("Session reset", "session_id", sessionID)
}

// CachedItems exposes the cache read path: the whole cache, unfiltered.
func (s *Service) CachedItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.cache.ListItems(ctx)
}

// runPipeline executes fetch → cache → describe → format on an immutable
// answers snapshot. Every stage recovers: a fetch failure degrades to an
// empty item list, a generation failure to the fallback description. Nothing
// here is fatal to the process.
func (s *Service) runPipeline(ctx context.Context, ans domain.Answers) string {
	log := slog.With("run_id", uuid.NewString())
	query := catalog.BuildQuery(ans)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	items, err := s.fetcher.Fetch(fetchCtx, query)
	cancel()
	if err != nil {
		log.Error("Catalog fetch failed, continuing with empty result", "error", err)
		items = nil
	}
	log.Info("Catalog fetch finished", "items", len(items), "category", query.CategoryID)

	if err := s.cache.UpsertItems(ctx, items); err != nil {
		log.Error("Failed to cache catalog items", "error", err)
	}

	description := s.describer.Describe(ctx, items, ans)
	return stylist.FormatResult(items, description)
}
