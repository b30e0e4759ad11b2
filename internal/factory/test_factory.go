package factory

import (
	"context"
	"time"

	"github.com/mcoot/impostor/internal/dependencies/mocks"
	"github.com/mcoot/impostor/internal/events"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/session"
	"github.com/mcoot/impostor/internal/storage"
	"github.com/mcoot/impostor/internal/storage/memory"
	"github.com/mcoot/impostor/internal/testutil"
)

// TestSessionID is the ID of the session opened by NewTestApp
const TestSessionID model.SessionID = "test-session"

// TestCategories is the catalogue offered by a TestApp
var TestCategories = []string{"Animals", "Food", "Movies"}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockIDs       *mocks.MockIDs
	MockProvider  *mocks.MockProvider
	MockPublisher *mocks.MockPublisher
}

// TestOption adjusts a TestApp before its session is opened
type TestOption func(*testOptions)

type testOptions struct {
	sessionCfg session.Config
	timeout    time.Duration
	storage    storage.Storage
}

// WithStrictContent makes provider failures return the session to SETUP
func WithStrictContent() TestOption {
	return func(o *testOptions) { o.sessionCfg.StrictContent = true }
}

// WithContentTimeout overrides the content request timeout
func WithContentTimeout(d time.Duration) TestOption {
	return func(o *testOptions) { o.timeout = d }
}

// WithStorage replaces the in-memory storage
func WithStorage(st storage.Storage) TestOption {
	return func(o *testOptions) { o.storage = st }
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// A session with ID TestSessionID is already open.
func NewTestApp(opts ...TestOption) *TestApp {
	o := testOptions{timeout: time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.storage == nil {
		o.storage = memory.New()
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs()
	mockProvider := mocks.NewMockProvider()
	mockPublisher := mocks.NewMockPublisher()

	logger := testutil.NopLogger()
	deps := dependencies{
		storage:   o.storage,
		clock:     mockClock,
		random:    mockRandom,
		ids:       mockIDs,
		provider:  mockProvider,
		publisher: mockPublisher,
	}
	app := newWithDependencies(deps, TestCategories, o.timeout, o.sessionCfg, logger)
	app.Hub = events.NewHub(logger)

	if _, err := app.Controller.Open(context.Background(), TestSessionID); err != nil {
		panic(err)
	}
	mockPublisher.Reset()

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockIDs:       mockIDs,
		MockProvider:  mockProvider,
		MockPublisher: mockPublisher,
	}
}

// AddPlayers adds players by name and returns them in roster order
func (t *TestApp) AddPlayers(ctx context.Context, names ...string) ([]model.Player, error) {
	players := make([]model.Player, 0, len(names))
	for _, name := range names {
		p, err := t.Controller.AddPlayer(ctx, name)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}
