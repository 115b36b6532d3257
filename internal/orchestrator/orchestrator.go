// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"voiceflow/internal/ai"
	"voiceflow/internal/db"
	"voiceflow/internal/providers"
	"voiceflow/internal/session"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrAIDisabled    = errors.New("AI suggestions are disabled")
)

// Generator produces suggestions. *ai.Client satisfies it.
type Generator interface {
	GenerateInterviewResponse(ctx context.Context, question, scriptContext string, mode ai.Mode, style ai.Style, maxLength int) (string, error)
	GenerateFollowUps(ctx context.Context, question string) ([]string, error)
}

// History records what happened to each suggestion. *db.Store satisfies it.
type History interface {
	RecordSuggestion(r db.SuggestionRecord) error
	UpdateOutcome(id string, outcome db.Outcome) error
}

// Options tune request handling. Zero values disable the limit.
type Options struct {
	Timeout     time.Duration // per request, suggestion and follow-ups together
	MinInterval time.Duration // between outgoing requests
}

// Result is a completed suggestion
type Result struct {
	ID         string
	Question   string
	Suggestion string
	FollowUps  []string
	Confidence float64
}

// Orchestrator turns questions into suggestions and writes them back through
// the session store. Only the latest request may change what is displayed.
type Orchestrator struct {
	store   *session.Store
	gen     Generator
	history History
	timeout time.Duration
	limiter *rate.Limiter

	mu       sync.Mutex
	inflight string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an orchestrator. history may be nil.
func New(store *session.Store, gen Generator, history History, opts Options) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		gen:     gen,
		history: history,
		timeout: opts.Timeout,
	}
	if opts.MinInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return o
}

// Request starts a suggestion in the background and returns its id.
// A request already in flight is cancelled and its result dropped.
func (o *Orchestrator) Request(ctx context.Context, question string) (string, error) {
	id, reqCtx, st, err := o.begin(ctx, question)
	if err != nil {
		return "", err
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.run(reqCtx, id, st); err != nil {
			slog.Debug("suggestion request ended", "id", id, "error", err)
		}
	}()
	return id, nil
}

// Ask runs a suggestion request to completion. The session store is updated
// the same way Request does.
func (o *Orchestrator) Ask(ctx context.Context, question string) (Result, error) {
	id, reqCtx, st, err := o.begin(ctx, question)
	if err != nil {
		return Result{}, err
	}
	return o.run(reqCtx, id, st)
}

func (o *Orchestrator) begin(ctx context.Context, question string) (string, context.Context, session.State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, session.State{}, ErrEmptyQuestion
	}
	if !o.store.Snapshot().AIEnabled {
		return "", nil, session.State{}, ErrAIDisabled
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		slog.Debug("superseding suggestion request", "id", o.inflight)
		o.cancel()
	}

	id := o.store.BeginRequest(question)
	var reqCtx context.Context
	var cancel context.CancelFunc
	if o.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	o.inflight = id
	o.cancel = cancel

	// snapshot after BeginRequest so the question is in it
	return id, reqCtx, o.store.Snapshot(), nil
}

func (o *Orchestrator) end(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight != id {
		return
	}
	o.cancel()
	o.inflight = ""
	o.cancel = nil
}

func (o *Orchestrator) run(ctx context.Context, id string, st session.State) (Result, error) {
	defer o.end(id)

	rec := db.SuggestionRecord{
		ID:        id,
		Question:  st.Question,
		Outcome:   db.OutcomePending,
		Provider:  string(st.Provider),
		Model:     st.Model,
		CreatedAt: time.Now(),
	}
	o.record(rec)

	res, err := o.generate(ctx, st)
	res.ID = id
	res.Question = st.Question

	rec.UpdatedAt = time.Now()
	if err != nil {
		rec.Outcome = db.OutcomeFailed
		rec.Error = err.Error()
		if !o.store.FailRequest(id, providers.UserMessage(err)) {
			rec.Outcome = db.OutcomeSuperseded
		}
		o.record(rec)
		return res, err
	}

	rec.Outcome = db.OutcomeShown
	rec.Suggestion = res.Suggestion
	rec.FollowUps = res.FollowUps
	o.record(rec)

	if !o.store.CompleteRequest(id, res.Suggestion, res.FollowUps, res.Confidence) {
		slog.Debug("dropping stale suggestion", "id", id)
		o.outcome(id, db.OutcomeSuperseded)
	}
	return res, nil
}

func (o *Orchestrator) generate(ctx context.Context, st session.State) (Result, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, fmt.Errorf("wait for request slot: %w", providers.ErrRateLimited)
		}
	}

	var res Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := o.gen.GenerateInterviewResponse(gctx, st.Question, st.Script, st.Mode, st.Style, st.MaxResponseLength)
		if err != nil {
			return err
		}
		res.Suggestion = text
		return nil
	})

	var followUps []string
	if st.ShowFollowUps {
		g.Go(func() error {
			qs, err := o.gen.GenerateFollowUps(gctx, st.Question)
			if err != nil {
				// the suggestion still stands without follow-ups
				slog.Warn("follow-up request failed", "error", err)
				return nil
			}
			followUps = qs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return Result{}, err
	}

	if len(followUps) > session.MaxFollowUps {
		followUps = followUps[:session.MaxFollowUps]
	}
	res.FollowUps = followUps
	res.Confidence = ai.Confidence(res.Suggestion, st.Script)
	return res, nil
}

// Accept appends the displayed suggestion to the script
func (o *Orchestrator) Accept() (session.Suggestion, bool) {
	s, ok := o.store.AcceptSuggestion()
	if ok {
		o.outcome(s.RequestID, db.OutcomeAccepted)
	}
	return s, ok
}

// Dismiss discards the displayed suggestion
func (o *Orchestrator) Dismiss() (session.Suggestion, bool) {
	s, ok := o.store.DismissSuggestion()
	if ok {
		o.outcome(s.RequestID, db.OutcomeDismissed)
	}
	return s, ok
}

// Cancel aborts the request in flight, if any
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Pending reports whether a request is in flight
func (o *Orchestrator) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight != ""
}

// Close cancels the request in flight and waits for background work
func (o *Orchestrator) Close() {
	o.Cancel()
	o.wg.Wait()
}

func (o *Orchestrator) record(r db.SuggestionRecord) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordSuggestion(r); err != nil {
		slog.Warn("failed to record suggestion", "id", r.ID, "error", err)
	}
}

func (o *Orchestrator) outcome(id string, outcome db.Outcome) {
	if o.history == nil || id == "" {
		return
	}
	if err := o.history.UpdateOutcome(id, outcome); err != nil {
		slog.Warn("failed to update suggestion outcome", "id", id, "outcome", string(outcome), "error", err)
	}
}
