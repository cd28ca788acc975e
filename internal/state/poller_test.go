package state

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/devtime/internal/events"
	"github.com/tOgg1/devtime/internal/models"
	"github.com/tOgg1/devtime/internal/rescuetime"
)

const waitTimeout = 2 * time.Second

type fetchResponse struct {
	summary *models.Summary
	err     error
	block   bool
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	keys      []string
	called    chan string
}

func newFakeFetcher(responses ...fetchResponse) *fakeFetcher {
	return &fakeFetcher{responses: responses, called: make(chan string, 64)}
}

func (f *fakeFetcher) PresenceSummary(ctx context.Context, apiKey string) (*models.Summary, error) {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	f.mu.Unlock()

	select {
	case f.called <- apiKey:
	default:
	}
	if resp.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return resp.summary, resp.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type fakeCreds struct {
	mu     sync.Mutex
	key    string
	clears int
	getErr error
}

func (c *fakeCreds) Get(context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	return c.key, c.key != "", nil
}

func (c *fakeCreds) Set(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	return nil
}

func (c *fakeCreds) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = ""
	c.clears++
	return nil
}

func (c *fakeCreds) stored() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

type fakePresenter struct {
	summaries chan models.SessionSnapshot
	awaiting  chan struct{}
	details   chan models.SessionSnapshot
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{
		summaries: make(chan models.SessionSnapshot, 64),
		awaiting:  make(chan struct{}, 64),
		details:   make(chan models.SessionSnapshot, 64),
	}
}

func (f *fakePresenter) ShowSummary(_ context.Context, snap models.SessionSnapshot) {
	trySend(f.summaries, snap)
}

func (f *fakePresenter) ShowAwaitingKey(context.Context) {
	trySend(f.awaiting, struct{}{})
}

func (f *fakePresenter) ShowDetails(_ context.Context, snap models.SessionSnapshot) {
	trySend(f.details, snap)
}

// trySend never blocks the poller loop once a test stops reading.
func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

type fakePrompter struct {
	requests chan func(string)
}

func newFakePrompter() *fakePrompter {
	return &fakePrompter{requests: make(chan func(string), 64)}
}

func (f *fakePrompter) RequestKey(_ context.Context, submit func(string)) {
	trySend(f.requests, submit)
}

func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func floatPtr(v float64) *float64 { return &v }

type harness struct {
	poller    *Poller
	fetcher   *fakeFetcher
	creds     *fakeCreds
	presenter *fakePresenter
	prompter  *fakePrompter
	publisher *events.InMemoryPublisher
	cancel    context.CancelFunc
	done      chan error
}

func newHarness(storedKey string, fetcher *fakeFetcher) *harness {
	h := &harness{
		fetcher:   fetcher,
		creds:     &fakeCreds{key: storedKey},
		presenter: newFakePresenter(),
		prompter:  newFakePrompter(),
		publisher: events.NewInMemoryPublisher(),
		done:      make(chan error, 1),
	}
	config := PollerConfig{RefreshInterval: 20 * time.Millisecond, RetryInterval: 10 * time.Millisecond}
	h.poller = NewPoller(config, h.fetcher, h.creds, h.presenter, h.prompter, WithPublisher(h.publisher))
	return h
}

func (h *harness) start(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.poller.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(waitTimeout):
			t.Error("poller did not stop")
		}
	})
	return h
}

func startPoller(t *testing.T, storedKey string, fetcher *fakeFetcher) *harness {
	t.Helper()
	return newHarness(storedKey, fetcher).start(t)
}

func (h *harness) subscribe(t *testing.T, eventType models.EventType) <-chan *models.Event {
	t.Helper()
	ch := make(chan *models.Event, 64)
	err := h.publisher.Subscribe(string(eventType), events.Filter{EventTypes: []models.EventType{eventType}}, func(event *models.Event) {
		trySend(ch, event)
	})
	require.NoError(t, err)
	return ch
}

func TestDefaultPollerConfig(t *testing.T) {
	config := DefaultPollerConfig()
	require.Equal(t, 60*time.Second, config.RefreshInterval)
	require.Equal(t, 30*time.Second, config.RetryInterval)

	p := NewPoller(PollerConfig{}, nil, nil, nil, nil)
	require.Equal(t, config, p.config)
	require.Equal(t, models.PollStateAwaitingKey, p.Snapshot().State)
	require.Equal(t, InitialDuration, p.Snapshot().Duration)
}

func TestPoller_ActivationWithStoredKey(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 3725, FocusPercentage: floatPtr(72)}})
	h := startPoller(t, "stored-key", fetcher)

	snap := recv(t, h.presenter.summaries, "first summary")
	require.Equal(t, "stored-key", recv(t, fetcher.called, "fetch"))
	require.True(t, snap.HasKey)
	require.Equal(t, models.PollStatePolling, snap.State)
	require.Equal(t, "1h 2m", snap.Duration)
	require.Equal(t, "◉◉◉◉○", snap.FocusDots)
	require.Equal(t, "Focus: High", snap.FocusLabel)
	require.Empty(t, h.prompter.requests)
}

func TestPoller_IdenticalPollsAreIdempotent(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 600, FocusPercentage: floatPtr(40)}})
	h := startPoller(t, "k", fetcher)

	first := recv(t, h.presenter.summaries, "first summary")
	second := recv(t, h.presenter.summaries, "refresh summary")

	first.UpdatedAt = time.Time{}
	second.UpdatedAt = time.Time{}
	require.Equal(t, first, second)
	require.Equal(t, "10m", second.Duration)
}

func TestPoller_NoStoredKeyPrompts(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := startPoller(t, "", fetcher)

	recv(t, h.presenter.awaiting, "awaiting item")
	submit := recv(t, h.prompter.requests, "prompt")
	require.Equal(t, models.PollStateAwaitingKey, h.poller.Snapshot().State)
	require.Equal(t, InitialDuration, h.poller.Snapshot().Duration)

	submit("  fresh-key  ")

	snap := recv(t, h.presenter.summaries, "summary after key")
	require.Equal(t, "1m", snap.Duration)
	require.Equal(t, "fresh-key", h.creds.stored())
	require.Equal(t, "fresh-key", recv(t, fetcher.called, "fetch"))
}

func TestPoller_KeyReadErrorKeepsStoredKey(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := newHarness("valid-key", fetcher)
	h.creds.getErr = errors.New("database is locked")
	h.start(t)

	recv(t, h.presenter.awaiting, "awaiting item")
	recv(t, h.prompter.requests, "prompt")
	require.Equal(t, models.PollStateAwaitingKey, h.poller.Snapshot().State)
	require.Equal(t, "valid-key", h.creds.stored())

	h.creds.mu.Lock()
	clears := h.creds.clears
	h.creds.mu.Unlock()
	require.Zero(t, clears)
}

func TestPoller_EmptySubmissionStaysAwaiting(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := startPoller(t, "", fetcher)

	submit := recv(t, h.prompter.requests, "prompt")
	submit("   ")

	// Click is queued behind the submission; with no key it re-prompts.
	require.NoError(t, h.poller.Click())
	recv(t, h.prompter.requests, "second prompt")

	snap := h.poller.Snapshot()
	require.False(t, snap.HasKey)
	require.Equal(t, models.PollStateAwaitingKey, snap.State)
	require.Equal(t, "", h.creds.stored())
	require.Zero(t, fetcher.callCount())
}

func TestPoller_InvalidKeyClearsAndReprompts(t *testing.T) {
	for _, status := range []int{200, 401, 500} {
		status := status
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			fetcher := newFakeFetcher(fetchResponse{err: &rescuetime.RequestError{StatusCode: status, Message: "# key not found"}})
			h := newHarness("bad-key", fetcher)
			failures := h.subscribe(t, models.EventTypePollFailed)
			h.start(t)

			recv(t, h.presenter.awaiting, "awaiting item")
			recv(t, h.prompter.requests, "prompt")

			snap := h.poller.Snapshot()
			require.False(t, snap.HasKey)
			require.Equal(t, models.PollStateAwaitingKey, snap.State)
			require.Equal(t, "", h.creds.stored())
			require.False(t, h.poller.Session().hasTimer())

			event := recv(t, failures, "poll.failed event")
			var payload models.PollFailedPayload
			require.NoError(t, json.Unmarshal(event.Payload, &payload))
			require.True(t, payload.InvalidKey)
			require.Equal(t, status, payload.StatusCode)
		})
	}
}

func TestPoller_TransientFailureRetries(t *testing.T) {
	fetcher := newFakeFetcher(
		fetchResponse{err: &rescuetime.RequestError{StatusCode: 503, Err: errors.New("unexpected status")}},
		fetchResponse{summary: &models.Summary{Duration: 120}},
	)
	h := newHarness("k", fetcher)

	states := make(chan models.PollState, 8)
	require.NoError(t, h.publisher.Subscribe("state", events.Filter{EventTypes: []models.EventType{models.EventTypePollFailed}}, func(*models.Event) {
		trySend(states, h.poller.Snapshot().State)
	}))
	h.start(t)

	require.Equal(t, models.PollStateRetryBackoff, recv(t, states, "failure state"))

	snap := recv(t, h.presenter.summaries, "summary after retry")
	require.Equal(t, "2m", snap.Duration)
	require.Equal(t, models.PollStatePolling, snap.State)
	require.Empty(t, snap.LastError)
	require.Equal(t, "k", h.creds.stored())
	require.Empty(t, h.presenter.awaiting)
}

func TestPoller_FailureKeepsLastSummary(t *testing.T) {
	fetcher := newFakeFetcher(
		fetchResponse{summary: &models.Summary{Duration: 3725, FocusPercentage: floatPtr(72)}},
		fetchResponse{err: &rescuetime.RequestError{StatusCode: 502, Err: errors.New("bad gateway")}},
	)
	h := newHarness("k", fetcher)
	failures := h.subscribe(t, models.EventTypePollFailed)
	h.start(t)

	recv(t, h.presenter.summaries, "summary")
	require.NoError(t, h.poller.Refresh())
	recv(t, failures, "poll.failed")

	require.NoError(t, h.poller.Click())
	snap := recv(t, h.presenter.details, "details")
	require.Equal(t, "1h 2m", snap.Duration)
	require.Equal(t, "Focus: High", snap.FocusLabel)
	require.True(t, snap.HasKey)
	require.NotEmpty(t, snap.LastError)
}

func TestPoller_ClickShowsDetails(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 3600, FocusPercentage: floatPtr(55)}})
	h := startPoller(t, "k", fetcher)
	recv(t, h.presenter.summaries, "summary")

	require.NoError(t, h.poller.Click())
	snap := recv(t, h.presenter.details, "details")
	require.Equal(t, "1h 0m", snap.Duration)
	require.NotNil(t, snap.FocusPercentage)
	require.Equal(t, 55.0, *snap.FocusPercentage)
	require.Empty(t, h.prompter.requests)
}

func TestPoller_RequestKeyReplacesKey(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := startPoller(t, "old", fetcher)
	recv(t, h.presenter.summaries, "summary")
	accepted := h.subscribe(t, models.EventTypeKeyAccepted)

	require.NoError(t, h.poller.RequestKey())
	submit := recv(t, h.prompter.requests, "prompt")
	submit("new-key-1234")

	event := recv(t, accepted, "key.accepted")
	require.Contains(t, event.Message, "****1234")
	require.NotContains(t, event.Message, "new-key")
	require.Equal(t, "new-key-1234", h.creds.stored())
}

func TestPoller_SupersededPollIsDiscarded(t *testing.T) {
	fetcher := newFakeFetcher(
		fetchResponse{block: true},
		fetchResponse{summary: &models.Summary{Duration: 300}},
	)
	h := newHarness("k", fetcher)
	failures := h.subscribe(t, models.EventTypePollFailed)
	h.start(t)

	recv(t, fetcher.called, "first fetch")
	require.NoError(t, h.poller.Refresh())

	snap := recv(t, h.presenter.summaries, "summary")
	require.Equal(t, "5m", snap.Duration)
	require.Equal(t, models.PollStatePolling, h.poller.Snapshot().State)
	require.Empty(t, failures)
}

func TestPoller_AlreadyRunning(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := startPoller(t, "k", fetcher)
	recv(t, h.presenter.summaries, "summary")

	require.True(t, h.poller.IsRunning())
	require.ErrorIs(t, h.poller.Run(context.Background()), ErrPollerAlreadyRunning)
}

func TestPoller_StopCancelsTimer(t *testing.T) {
	fetcher := newFakeFetcher(fetchResponse{summary: &models.Summary{Duration: 60}})
	h := startPoller(t, "k", fetcher)
	recv(t, h.presenter.summaries, "summary")

	h.cancel()
	require.NoError(t, recv(t, h.done, "run exit"))
	h.done <- nil

	require.False(t, h.poller.IsRunning())
	require.False(t, h.poller.Session().hasTimer())
	require.ErrorIs(t, h.poller.SubmitKey("x"), ErrPollerNotRunning)
	require.ErrorIs(t, h.poller.Click(), ErrPollerNotRunning)
}

func TestSession_ApplyReplacesTogether(t *testing.T) {
	session := NewSession()
	session.Apply(&models.Summary{Duration: 3725, FocusPercentage: floatPtr(100)}, time.Unix(100, 0))

	snap := session.Snapshot()
	require.Equal(t, "1h 2m", snap.Duration)
	require.Equal(t, "◉◉◉◉◉", snap.FocusDots)
	require.Equal(t, "Focus: Very High", snap.FocusLabel)

	session.Apply(&models.Summary{Duration: 59}, time.Unix(200, 0))
	snap = session.Snapshot()
	require.Equal(t, "0m", snap.Duration)
	require.Nil(t, snap.FocusPercentage)
	require.Empty(t, snap.FocusDots)
	require.Empty(t, snap.FocusLabel)
	require.Equal(t, time.Unix(200, 0), snap.UpdatedAt)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	session := NewSession()
	focus := 30.0
	session.Apply(&models.Summary{Duration: 60, FocusPercentage: &focus}, time.Now())
	focus = 90

	snap := session.Snapshot()
	*snap.FocusPercentage = 10
	require.Equal(t, 30.0, *session.Snapshot().FocusPercentage)
}

func TestSession_ScheduleReplacesTimer(t *testing.T) {
	session := NewSession()
	require.Nil(t, session.timerC())

	session.schedule(time.Hour)
	first := session.timerC()
	session.schedule(5 * time.Millisecond)
	second := session.timerC()
	require.NotEqual(t, first, second)

	recv(t, second, "replacement timer")
	select {
	case <-first:
		t.Fatal("stopped timer fired")
	default:
	}

	session.stopTimer()
	require.False(t, session.hasTimer())
}
