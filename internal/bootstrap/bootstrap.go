package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nmorozov/docpipe/internal/config"
	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
	"github.com/nmorozov/docpipe/internal/core/usecase"
	"github.com/nmorozov/docpipe/internal/infrastructure/analysis/heuristic"
	"github.com/nmorozov/docpipe/internal/infrastructure/analysis/ollama"
	"github.com/nmorozov/docpipe/internal/infrastructure/extractor"
	natsqueue "github.com/nmorozov/docpipe/internal/infrastructure/queue/nats"
	"github.com/nmorozov/docpipe/internal/infrastructure/queue/rabbitmq"
	"github.com/nmorozov/docpipe/internal/infrastructure/resilience"
	"github.com/nmorozov/docpipe/internal/infrastructure/storage/localfs"
	miniostore "github.com/nmorozov/docpipe/internal/infrastructure/storage/minio"
	"github.com/nmorozov/docpipe/internal/observability/logging"
	"github.com/nmorozov/docpipe/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Storage ports.BlobStore
	Queue   ports.WorkQueue

	SubmitUC  ports.DocumentSubmitter
	ProcessUC ports.WorkProcessor
	StatusUC  ports.StatusResolver
	ListUC    ports.ResultLister

	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	storage, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	queue, closeQueue, err := newQueue(cfg, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("init work queue: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics(service)
	analyzer, err := newAnalyzer(cfg, executor, workerMetrics, service)
	if err != nil {
		closeQueue()
		return nil, fmt.Errorf("init analyzer: %w", err)
	}

	submitUC := usecase.NewSubmitDocumentUseCase(storage, queue, cfg.UploadContainer, cfg.AllowedExtensions)
	processUC := usecase.NewProcessWorkItemUseCase(
		storage,
		extractor.New(),
		analyzer,
		cfg.UploadContainer,
		cfg.ResultContainer,
		cfg.ReadingSpeedWPM,
	)
	statusUC := usecase.NewResolveStatusUseCase(storage, cfg.UploadContainer, cfg.ResultContainer)
	listUC := usecase.NewListResultsUseCase(storage, cfg.ResultContainer)

	return &App{
		Config: cfg,
		Logger: logger,

		Storage: storage,
		Queue:   queue,

		SubmitUC:  submitUC,
		ProcessUC: processUC,
		StatusUC:  statusUC,
		ListUC:    listUC,

		WorkerMetrics: workerMetrics,

		closeFn: closeQueue,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newStorage(cfg config.Config) (ports.BlobStore, error) {
	switch cfg.StorageBackend {
	case "minio":
		return miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
		})
	case "localfs":
		return localfs.New(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newQueue(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.WorkQueue, func(), error) {
	switch cfg.QueueBackend {
	case "nats":
		queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSStream, cfg.QueueName, cfg.QueueMaxDeliver, natsqueue.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return queue, queue.Close, nil
	case "rabbitmq":
		queue, err := rabbitmq.New(cfg.RabbitURL, cfg.QueueName, cfg.QueueMaxDeliver, executor, logger)
		if err != nil {
			return nil, nil, err
		}
		return queue, queue.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}

func newAnalyzer(cfg config.Config, executor *resilience.Executor, m *metrics.WorkerMetrics, service string) (ports.Analyzer, error) {
	switch cfg.AnalysisProvider {
	case "ollama":
		inner := ollama.New(cfg.OllamaURL, cfg.OllamaModel, cfg.AnalysisAPIKey, cfg.AnalysisMaxChars, executor)
		return &fallbackCountingAnalyzer{inner: inner, metrics: m, service: service}, nil
	case "heuristic":
		return heuristic.New(), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.AnalysisProvider)
	}
}

// fallbackCountingAnalyzer counts degraded annotations. The external analyzer
// signals degradation in-band: unknown labels with no keywords or themes.
type fallbackCountingAnalyzer struct {
	inner   ports.Analyzer
	metrics *metrics.WorkerMetrics
	service string
}

func (a *fallbackCountingAnalyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	analysis, err := a.inner.Analyze(ctx, text)
	if err == nil && isDegraded(analysis) {
		a.metrics.RecordAnalysisFallback(a.service)
	}
	return analysis, err
}

func isDegraded(analysis domain.Analysis) bool {
	return analysis.DocumentType == "unknown" &&
		analysis.Tone == "unknown" &&
		len(analysis.Keywords) == 0 &&
		len(analysis.Themes) == 0
}
