package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/database"
	"github.com/ekaya-inc/askdb/pkg/llm"
	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/repositories"
	"github.com/ekaya-inc/askdb/pkg/retry"
	"github.com/ekaya-inc/askdb/pkg/services"
	"github.com/ekaya-inc/askdb/pkg/workers"
)

// openCache connects to the response cache store and applies pending
// migrations.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	db, err := connectCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db.SQLDB(), cfg.Database.MigrationsPath, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// connectCache retries while the store starts up.
func connectCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("Response cache not reachable, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error", logging.SanitizeError(err)))
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		return database.NewConnection(ctx, database.ConfigFrom(cfg.Database))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to response cache at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	return db, nil
}

// newPipeline wires generation, execution and explanation over two pools:
// one for model calls and one for database work.
func newPipeline(cfg *config.Config, projects repositories.ProjectRepository, responses repositories.ResponseRepository, logger *zap.Logger) (services.PipelineService, error) {
	var tasks *llm.TaskConfig
	if cfg.LLM.PipelinesFile != "" {
		loaded, err := llm.LoadTaskConfig(cfg.LLM.PipelinesFile)
		if err != nil {
			return nil, err
		}
		tasks = loaded
	}

	factory := llm.NewClientFactory(tasks, llm.FactoryDefaults{
		Provider:        cfg.LLM.Provider,
		Endpoint:        cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
	}, logger)

	llmPool := workers.NewPool(workers.Config{
		Name:          "llm",
		MaxConcurrent: cfg.Pipeline.LLMWorkers,
		Timeout:       cfg.Pipeline.LLMTimeout,
	}, logger)
	execPool := workers.NewPool(workers.Config{
		Name:          "execution",
		MaxConcurrent: cfg.Pipeline.ExecutionWorkers,
		Timeout:       cfg.Pipeline.ExecutionTimeout,
	}, logger)

	return services.NewPipelineService(services.PipelineDeps{
		Projects:  projects,
		Responses: responses,
		Generator: services.NewSQLGenerator(factory, llmPool, logger),
		Fallback:  services.NewFallbackBuilder(cfg.Fallback, logger),
		Executor:  services.NewQueryExecutor(execPool, cfg.Pipeline.RowLimit, logger),
		Answers:   services.NewAnswerSynthesizer(factory, llmPool, logger),
	}, logger), nil
}

// discardResponses stands in for the cache when a command runs without one.
// Saves succeed and every lookup misses.
type discardResponses struct{}

func (discardResponses) Save(ctx context.Context, resp *models.CachedResponse) error { return nil }

func (discardResponses) Get(ctx context.Context, projectID, responseID string) (*models.CachedResponse, error) {
	return nil, apperrors.ErrNotFound
}

var _ repositories.ResponseRepository = discardResponses{}
