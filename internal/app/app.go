package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/eodhd"
	"github.com/ternarybob/specto/internal/handlers"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/services/analysis"
	"github.com/ternarybob/specto/internal/services/artifacts"
	"github.com/ternarybob/specto/internal/services/cache"
	"github.com/ternarybob/specto/internal/services/extraction"
	"github.com/ternarybob/specto/internal/services/llm"
	"github.com/ternarybob/specto/internal/services/market"
	"github.com/ternarybob/specto/internal/services/pdf"
	"github.com/ternarybob/specto/internal/services/records"
	"github.com/ternarybob/specto/internal/services/reports"
	"github.com/ternarybob/specto/internal/services/titles"
	"github.com/ternarybob/specto/internal/services/video"
	badgerstore "github.com/ternarybob/specto/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Services
	VideoService    interfaces.VideoUnderstanding
	MarketService   interfaces.MarketDataService
	LLMService      interfaces.LLMService
	TitleService    interfaces.TitleLookup
	CacheService    *cache.Service
	ArtifactStore   *artifacts.Store
	RecordService   *records.Service
	Extraction      *extraction.Engine
	PDFService      *pdf.Service
	Orchestrator    *analysis.Orchestrator
	retentionSweeps *artifacts.Scheduler

	// Handlers
	APIHandler      *handlers.APIHandler
	AnalyzeHandler  *handlers.AnalyzeHandler
	WSHandler       *handlers.WebSocketHandler
	ChartHandler    *handlers.ChartHandler
	StockHandler    *handlers.StockHandler
	ChannelHandler  *handlers.ChannelHandler
	DownloadHandler *handlers.DownloadHandler
	RecordsHandler  *handlers.RecordsHandler
}

// VideoProvider is the concrete video-understanding constructor. Tests
// replace it to build an App without a Gemini API key.
type VideoProvider func(cfg *common.GeminiConfig, logger arbor.ILogger) (interfaces.VideoUnderstanding, error)

// New creates and wires the full application. Storage is opened first so a
// bad data directory fails fast; AI collaborators come next because the
// orchestrator cannot run without them; handlers are built last.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	return newApp(cfg, logger, defaultVideoProvider)
}

func defaultVideoProvider(cfg *common.GeminiConfig, logger arbor.ILogger) (interfaces.VideoUnderstanding, error) {
	svc, err := video.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func newApp(cfg *common.Config, logger arbor.ILogger, videoFn VideoProvider) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}

	if err := a.initServices(videoFn); err != nil {
		a.closeStorage()
		return nil, err
	}

	a.initHandlers()
	a.startRetention()

	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialized")

	return a, nil
}

func (a *App) initStorage() error {
	manager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.StorageManager = manager

	store, err := artifacts.NewStore(a.Config.Storage.Artifacts.Dir, a.Logger)
	if err != nil {
		a.closeStorage()
		return fmt.Errorf("failed to open artifact store: %w", err)
	}
	a.ArtifactStore = store

	return nil
}

func (a *App) initServices(videoFn VideoProvider) error {
	videoSvc, err := videoFn(&a.Config.Gemini, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize video understanding: %w", err)
	}
	a.VideoService = videoSvc

	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		// Extraction and scoring degrade to their deterministic fallback
		// paths without a text model.
		a.Logger.Warn().Err(err).Msg("Text LLM unavailable, extraction will use fallback paths")
		llmService = nil
	}
	a.LLMService = llmService
	a.Extraction = extraction.NewEngine(llmService, a.Logger)

	a.MarketService = market.NewService(a.marketClient(), a.Logger)

	a.CacheService = cache.NewService(a.StorageManager.CacheStorage(), a.ArtifactStore, a.Logger)
	a.TitleService = titles.NewService(&a.Config.Video, a.Logger)
	a.RecordService = records.NewService(a.StorageManager.RecordStorage(), a.TitleService, a.Logger)
	a.PDFService = pdf.NewService(a.Logger)

	a.Orchestrator = analysis.NewOrchestrator(
		a.VideoService,
		a.MarketService,
		a.CacheService,
		a.RecordService,
		reports.NewBuilder(),
		&a.Config.Analysis,
		a.Logger,
	)

	return nil
}

func (a *App) marketClient() *eodhd.Client {
	opts := []eodhd.ClientOption{
		eodhd.WithLogger(a.Logger),
	}
	if a.Config.EODHD.BaseURL != "" {
		opts = append(opts, eodhd.WithBaseURL(a.Config.EODHD.BaseURL))
	}
	if a.Config.EODHD.RateLimit > 0 {
		opts = append(opts, eodhd.WithRateLimit(int(a.Config.EODHD.RateLimit)))
	}
	if a.Config.EODHD.Timeout != "" {
		if timeout, err := time.ParseDuration(a.Config.EODHD.Timeout); err == nil {
			opts = append(opts, eodhd.WithHTTPClient(&http.Client{Timeout: timeout}))
		} else {
			a.Logger.Warn().Str("timeout", a.Config.EODHD.Timeout).Msg("Invalid EODHD timeout, using default")
		}
	}
	return eodhd.NewClient(a.Config.EODHD.APIKey, opts...)
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.Orchestrator, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Orchestrator, a.Logger)
	a.ChartHandler = handlers.NewChartHandler(a.CacheService, a.Extraction, a.MarketService, a.Config.Analysis.DefaultRangeDays, a.Logger)
	a.StockHandler = handlers.NewStockHandler(a.MarketService, a.Config.Analysis.DefaultRangeDays, a.Logger)
	a.ChannelHandler = handlers.NewChannelHandler(a.TitleService, a.Logger)
	a.DownloadHandler = handlers.NewDownloadHandler(a.CacheService, a.ArtifactStore, a.PDFService, a.Logger)
	a.RecordsHandler = handlers.NewRecordsHandler(a.RecordService, a.Logger)
}

func (a *App) startRetention() {
	if !a.Config.Retention.Enabled {
		return
	}

	maxAge, err := time.ParseDuration(a.Config.Retention.MaxAge)
	if err != nil {
		a.Logger.Warn().Str("max_age", a.Config.Retention.MaxAge).Msg("Invalid retention max_age, sweeper disabled")
		return
	}

	sweeper := artifacts.NewScheduler(a.ArtifactStore, maxAge, a.Logger)
	if err := sweeper.Start(a.Config.Retention.Schedule); err != nil {
		a.Logger.Warn().Err(err).Str("schedule", a.Config.Retention.Schedule).Msg("Failed to start retention sweeper")
		return
	}
	a.retentionSweeps = sweeper

	a.Logger.Info().
		Str("schedule", a.Config.Retention.Schedule).
		Str("max_age", a.Config.Retention.MaxAge).
		Msg("Artifact retention sweeper started")
}

func (a *App) closeStorage() {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

// Close shuts down background workers and storage.
func (a *App) Close() error {
	if a.retentionSweeps != nil {
		a.retentionSweeps.Stop()
	}
	a.closeStorage()
	a.Logger.Info().Msg("Application closed")
	return nil
}
