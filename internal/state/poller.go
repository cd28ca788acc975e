package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/devtime/internal/events"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/models"
	"github.com/tOgg1/devtime/internal/rescuetime"
)

// Poller errors.
var (
	ErrPollerAlreadyRunning = errors.New("poller already running")
	ErrPollerNotRunning     = errors.New("poller not running")
)

// PollerConfig contains configuration for the status poller.
type PollerConfig struct {
	// RefreshInterval is the delay after a successful poll.
	// Default: 60s
	RefreshInterval time.Duration

	// RetryInterval is the delay after a transient failure.
	// Default: 30s
	RetryInterval time.Duration
}

// DefaultPollerConfig returns the standard intervals.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		RefreshInterval: 60 * time.Second,
		RetryInterval:   30 * time.Second,
	}
}

// Fetcher retrieves today's summary for a key.
type Fetcher interface {
	PresenceSummary(ctx context.Context, apiKey string) (*models.Summary, error)
}

// CredentialStore persists the API key.
type CredentialStore interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Presenter renders the session on the status surface.
type Presenter interface {
	ShowSummary(ctx context.Context, snap models.SessionSnapshot)
	ShowAwaitingKey(ctx context.Context)
	ShowDetails(ctx context.Context, snap models.SessionSnapshot)
}

// Prompter asks the user for a key without blocking the caller. The answer,
// possibly empty, is passed to submit.
type Prompter interface {
	RequestKey(ctx context.Context, submit func(key string))
}

type pollResult struct {
	generation uint64
	summary    *models.Summary
	err        error
}

// Poller drives the AwaitingKey / Polling / RetryBackoff state machine. All
// transitions happen on the goroutine running Run.
type Poller struct {
	config    PollerConfig
	fetcher   Fetcher
	creds     CredentialStore
	presenter Presenter
	prompter  Prompter
	publisher events.Publisher
	session   *Session
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	inbox   chan func(context.Context)
	done    chan struct{}

	// Owned by the Run goroutine.
	results    chan pollResult
	generation uint64
	pollCancel context.CancelFunc
	wg         sync.WaitGroup
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPublisher reports state changes as events.
func WithPublisher(publisher events.Publisher) PollerOption {
	return func(p *Poller) {
		p.publisher = publisher
	}
}

// WithSession shares an existing session.
func WithSession(session *Session) PollerOption {
	return func(p *Poller) {
		p.session = session
	}
}

// NewPoller creates a Poller.
func NewPoller(config PollerConfig, fetcher Fetcher, creds CredentialStore, presenter Presenter, prompter Prompter, opts ...PollerOption) *Poller {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultPollerConfig().RefreshInterval
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultPollerConfig().RetryInterval
	}

	p := &Poller{
		config:    config,
		fetcher:   fetcher,
		creds:     creds,
		presenter: presenter,
		prompter:  prompter,
		logger:    logging.Component("poller"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.session == nil {
		p.session = NewSession()
	}
	return p
}

// Session returns the poller's session.
func (p *Poller) Session() *Session {
	return p.session
}

// Snapshot returns the current session snapshot.
func (p *Poller) Snapshot() models.SessionSnapshot {
	return p.session.Snapshot()
}

// IsRunning returns true while Run is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run activates the session and drives it until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPollerAlreadyRunning
	}
	p.running = true
	p.inbox = make(chan func(context.Context), 16)
	p.done = make(chan struct{})
	p.results = make(chan pollResult)
	done := p.done
	p.mu.Unlock()

	p.logger.Info().
		Dur("refresh_interval", p.config.RefreshInterval).
		Dur("retry_interval", p.config.RetryInterval).
		Msg("poller starting")

	defer func() {
		p.cancelPoll()
		p.session.stopTimer()
		p.wg.Wait()

		p.mu.Lock()
		p.running = false
		p.inbox = nil
		close(done)
		p.mu.Unlock()
		p.logger.Info().Msg("poller stopped")
	}()

	p.activate(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-p.inbox:
			fn(ctx)
		case result := <-p.results:
			p.handleResult(ctx, result)
		case <-p.session.timerC():
			p.session.timerFired()
			p.startPoll(ctx)
		}
	}
}

// SubmitKey delivers a prompted key to the running poller.
func (p *Poller) SubmitKey(key string) error {
	return p.enqueue(func(ctx context.Context) {
		p.submitKey(ctx, key)
	})
}

// Click runs the status item's click command.
func (p *Poller) Click() error {
	return p.enqueue(func(ctx context.Context) {
		snap := p.session.Snapshot()
		if !snap.HasKey {
			p.requestKey(ctx)
			return
		}
		p.presenter.ShowDetails(ctx, snap)
	})
}

// RequestKey opens the key prompt regardless of the current state.
func (p *Poller) RequestKey() error {
	return p.enqueue(p.requestKey)
}

// Refresh polls immediately when a key is present.
func (p *Poller) Refresh() error {
	return p.enqueue(func(ctx context.Context) {
		if p.session.Key() == "" {
			return
		}
		p.session.stopTimer()
		p.startPoll(ctx)
	})
}

func (p *Poller) enqueue(fn func(context.Context)) error {
	p.mu.Lock()
	inbox, done := p.inbox, p.done
	p.mu.Unlock()

	if inbox == nil {
		return ErrPollerNotRunning
	}
	select {
	case inbox <- fn:
		return nil
	case <-done:
		return ErrPollerNotRunning
	}
}

func (p *Poller) activate(ctx context.Context) {
	key, ok, err := p.creds.Get(ctx)
	if err != nil {
		// The stored key is left alone; a later submission overwrites it.
		p.logger.Error().Err(err).Msg("failed to load api key")
		p.awaitKey(ctx)
		return
	}
	if !ok {
		p.clearKey(ctx)
		p.awaitKey(ctx)
		return
	}
	p.session.setKey(key)
	p.startPoll(ctx)
}

func (p *Poller) clearKey(ctx context.Context) {
	if err := p.creds.Clear(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("failed to clear api key")
	}
}

// awaitKey drops the in-memory key, shows the awaiting item and prompts.
func (p *Poller) awaitKey(ctx context.Context) {
	p.cancelPoll()
	p.session.stopTimer()
	p.session.setKey("")
	p.session.setState(models.PollStateAwaitingKey)

	p.presenter.ShowAwaitingKey(ctx)
	p.publish(ctx, events.New(models.EventTypeKeyRequired, "RescueTime API key required", nil))
	p.requestKey(ctx)
}

func (p *Poller) requestKey(ctx context.Context) {
	p.prompter.RequestKey(ctx, func(key string) {
		if err := p.SubmitKey(key); err != nil {
			p.logger.Debug().Err(err).Msg("dropped key submission")
		}
	})
}

func (p *Poller) submitKey(ctx context.Context, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		if p.session.Key() == "" {
			p.session.setState(models.PollStateAwaitingKey)
		}
		p.logger.Debug().Msg("empty key submitted")
		return
	}

	if err := p.creds.Set(ctx, key); err != nil {
		p.logger.Error().Err(err).Msg("failed to store api key")
	}
	p.session.setKey(key)
	p.publish(ctx, events.New(models.EventTypeKeyAccepted, "API key saved ("+logging.MaskSecret(key)+")", nil))

	p.session.stopTimer()
	p.startPoll(ctx)
}

// startPoll launches a fetch, superseding any poll already in flight.
func (p *Poller) startPoll(ctx context.Context) {
	p.cancelPoll()

	key := p.session.Key()
	if key == "" {
		p.awaitKey(ctx)
		return
	}

	p.generation++
	generation := p.generation
	pollCtx, cancel := context.WithCancel(ctx)
	p.pollCancel = cancel
	p.session.setState(models.PollStatePolling)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		summary, err := p.fetcher.PresenceSummary(pollCtx, key)
		select {
		case p.results <- pollResult{generation: generation, summary: summary, err: err}:
		case <-pollCtx.Done():
		}
	}()
}

func (p *Poller) cancelPoll() {
	if p.pollCancel != nil {
		p.pollCancel()
		p.pollCancel = nil
	}
}

func (p *Poller) handleResult(ctx context.Context, result pollResult) {
	if result.generation != p.generation {
		p.logger.Debug().Uint64("generation", result.generation).Msg("discarding superseded poll")
		return
	}
	p.cancelPoll()

	if result.err == nil {
		p.onSuccess(ctx, result.summary)
		return
	}
	if ctx.Err() != nil {
		return
	}
	p.onFailure(ctx, result.err)
}

func (p *Poller) onSuccess(ctx context.Context, summary *models.Summary) {
	p.session.Apply(summary, p.now())
	snap := p.session.Snapshot()
	p.presenter.ShowSummary(ctx, snap)
	p.session.schedule(p.config.RefreshInterval)

	p.logger.Debug().
		Int64("duration_seconds", summary.Duration).
		Bool("has_focus", summary.HasFocus()).
		Msg("poll succeeded")

	p.publish(ctx, events.New(models.EventTypePollSucceeded, snap.Duration, models.PollSucceededPayload{
		DurationSeconds: summary.Duration,
		FocusPercentage: summary.FocusPercentage,
		NextPollSeconds: int(p.config.RefreshInterval / time.Second),
	}))
}

func (p *Poller) onFailure(ctx context.Context, err error) {
	message := logging.Redact(err.Error())
	payload := models.PollFailedPayload{Error: message}
	var reqErr *rescuetime.RequestError
	if errors.As(err, &reqErr) {
		payload.StatusCode = reqErr.StatusCode
	}

	if rescuetime.IsInvalidKey(err) {
		p.logger.Warn().Str("error", message).Msg("api key rejected")
		payload.InvalidKey = true
		p.session.invalidate(message)
		p.publish(ctx, events.New(models.EventTypePollFailed, message, payload))
		p.clearKey(ctx)
		p.awaitKey(ctx)
		return
	}

	fails := p.session.recordFailure(models.PollStateRetryBackoff, message)
	p.session.schedule(p.config.RetryInterval)

	p.logger.Warn().
		Str("error", message).
		Int("consecutive_fails", fails).
		Dur("retry_in", p.config.RetryInterval).
		Msg("poll failed")

	payload.RetryInSeconds = int(p.config.RetryInterval / time.Second)
	payload.ConsecutiveFails = fails
	p.publish(ctx, events.New(models.EventTypePollFailed, message, payload))
}

func (p *Poller) publish(ctx context.Context, event *models.Event) {
	if p.publisher != nil {
		p.publisher.Publish(ctx, event)
	}
}
