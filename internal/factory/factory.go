package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/impostor/internal/config"
	"github.com/mcoot/impostor/internal/dependencies/clock"
	"github.com/mcoot/impostor/internal/dependencies/ids"
	"github.com/mcoot/impostor/internal/dependencies/random"
	"github.com/mcoot/impostor/internal/events"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/categories"
	"github.com/mcoot/impostor/internal/services/content"
	"github.com/mcoot/impostor/internal/services/roster"
	"github.com/mcoot/impostor/internal/services/session"
	"github.com/mcoot/impostor/internal/storage"
	"github.com/mcoot/impostor/internal/storage/memory"
	redisstorage "github.com/mcoot/impostor/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	RosterService   *roster.Service
	CategoryService *categories.Service
	Machine         *session.Machine
	Content         *content.Adapter
	Controller      *session.Controller
	Hub             *events.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// ContentProvider selects "llm", "wordbank" or "static" (the default)
	ContentProvider string
	LLMConfig       content.LLMConfig
	WordBankPath    string
	ContentTimeout  time.Duration
	StrictContent   bool
	// HTTPClient is used by the llm provider (optional)
	HTTPClient *http.Client

	// Categories overrides the catalogue. When empty, the word bank's
	// categories are used with the wordbank provider, else the built-in list.
	Categories []string
	// Seed makes randomness reproducible when non-zero
	Seed uint64
}

// FromConfig maps loaded application configuration onto a factory Config
func FromConfig(cfg *config.Config, logger *slog.Logger) Config {
	fc := Config{
		Logger:          logger,
		StorageType:     cfg.Storage.Type,
		ContentProvider: cfg.Content.Provider,
		LLMConfig: content.LLMConfig{
			BaseURL:           cfg.Content.BaseURL,
			Model:             cfg.Content.Model,
			APIKey:            cfg.Content.APIKey,
			Language:          cfg.Content.Language,
			RequestsPerMinute: cfg.Content.RequestsPerMinute,
		},
		WordBankPath:   cfg.Content.WordBankPath,
		ContentTimeout: cfg.Content.Timeout,
		StrictContent:  cfg.Content.Strict,
		Categories:     cfg.Game.Categories,
		Seed:           cfg.Game.Seed,
	}
	if cfg.Storage.Type == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		redisCfg.SessionTTL = cfg.Storage.RedisTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	var rnd random.Random = random.New()
	if cfg.Seed != 0 {
		rnd = random.NewSeeded(cfg.Seed)
	}

	provider, catalogue, err := newProvider(cfg, rnd)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub(logger)
	deps := dependencies{
		storage:   store,
		clock:     clk,
		random:    rnd,
		ids:       ids.New(),
		provider:  provider,
		publisher: events.NewHubPublisher(hub, logger),
	}
	app := newWithDependencies(deps, catalogue, cfg.ContentTimeout, session.Config{StrictContent: cfg.StrictContent}, logger)
	app.Hub = hub

	logger.Info("application wired",
		slog.String("storage", storageType),
		slog.String("content_provider", providerName(cfg.ContentProvider)),
		slog.Bool("strict_content", cfg.StrictContent),
		slog.Int("category_count", len(app.CategoryService.Catalogue())),
	)
	return app, nil
}

func providerName(name string) string {
	if name == "" {
		return config.ProviderStatic
	}
	return name
}

// newProvider builds the configured content provider and the catalogue to offer
func newProvider(cfg Config, rnd random.Random) (content.Provider, []string, error) {
	catalogue := cfg.Categories

	switch providerName(cfg.ContentProvider) {
	case config.ProviderStatic:
		return content.NewStaticProvider(), catalogue, nil
	case config.ProviderLLM:
		if cfg.LLMConfig.APIKey == "" {
			return nil, nil, content.ErrMissingAPIKey
		}
		return content.NewLLMProvider(cfg.LLMConfig, cfg.HTTPClient), catalogue, nil
	case config.ProviderWordBank:
		bank, err := content.LoadWordBank(cfg.WordBankPath)
		if err != nil {
			return nil, nil, err
		}
		if len(catalogue) == 0 {
			catalogue = bank.Categories()
		}
		return content.NewWordBankProvider(bank, rnd), catalogue, nil
	default:
		return nil, nil, fmt.Errorf("invalid ContentProvider %q", cfg.ContentProvider)
	}
}

// dependencies are the swappable collaborators of an App
type dependencies struct {
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	provider  content.Provider
	publisher events.Publisher
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, catalogue []string, timeout time.Duration, sessionCfg session.Config, logger *slog.Logger) *App {
	rosterService := roster.New(deps.ids)
	categoryService := categories.New(catalogue)
	machine := session.NewMachine(rosterService, categoryService, deps.random)
	adapter := content.NewAdapter(deps.provider, timeout, logger)
	controller := session.NewController(deps.storage, machine, adapter, deps.publisher, deps.clock, logger, sessionCfg)

	return &App{
		Storage:         deps.storage,
		Clock:           deps.clock,
		Random:          deps.random,
		IDs:             deps.ids,
		RosterService:   rosterService,
		CategoryService: categoryService,
		Machine:         machine,
		Content:         adapter,
		Controller:      controller,
	}
}

// OpenSession starts the single fresh session the process serves
func (a *App) OpenSession(ctx context.Context) (*model.Session, error) {
	return a.Controller.Open(ctx, model.SessionID(a.IDs.New()))
}

// Close releases the event hub and any storage connection
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
