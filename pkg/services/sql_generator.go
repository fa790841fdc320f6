package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/llm"
	"github.com/ekaya-inc/askdb/pkg/logging"
	"github.com/ekaya-inc/askdb/pkg/metrics"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/prompts"
	sqlutil "github.com/ekaya-inc/askdb/pkg/sql"
	"github.com/ekaya-inc/askdb/pkg/workers"
)

// GenerationRequest is the input to SQL generation.
type GenerationRequest struct {
	Question string
	Schema   prompts.SchemaDescription
	// Tables supplies known identifiers for quoting.
	Tables  []models.TableSchema
	Dialect datasource.Dialect
	Quote   sqlutil.QuoteFunc
}

// GeneratedSQL is a cleaned, quoted candidate statement.
type GeneratedSQL struct {
	SQL   string
	Model string
}

// SQLGenerator turns a question into one candidate SQL statement.
type SQLGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GeneratedSQL, error)
}

type sqlGenerator struct {
	llmFactory llm.LLMClientFactory
	pool       *workers.Pool
	logger     *zap.Logger
}

// NewSQLGenerator creates a generator whose model calls run on pool.
func NewSQLGenerator(llmFactory llm.LLMClientFactory, pool *workers.Pool, logger *zap.Logger) SQLGenerator {
	return &sqlGenerator{
		llmFactory: llmFactory,
		pool:       pool,
		logger:     logger.Named("sql_generator"),
	}
}

// Generate asks the model for SQL, then strips fences, drops dangling UNIONs
// and extra top-level SELECTs, checks the statement verb, quotes known
// identifiers and screens string literals. Every failure is returned as a
// *apperrors.GenerationFailure.
func (g *sqlGenerator) Generate(ctx context.Context, req GenerationRequest) (*GeneratedSQL, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperrors.NewGenerationFailure("question is empty", apperrors.ErrInvalidInput)
	}

	schemaJSON, err := req.Schema.JSON()
	if err != nil {
		return nil, apperrors.NewGenerationFailure("schema could not be described", err)
	}

	client, temperature, err := g.llmFactory.ForTask(llm.TaskSQLGeneration)
	if err != nil {
		return nil, apperrors.NewGenerationFailure("language model is not configured", err)
	}

	dialect := req.Dialect.String()
	prompt := prompts.BuildSQLGenerationPrompt(dialect, schemaJSON, req.Question)
	system := prompts.SQLGenerationSystemMessage(dialect)

	start := time.Now()
	result, err := workers.Submit(ctx, g.pool, func(ctx context.Context) (*llm.GenerateResponseResult, error) {
		return client.GenerateResponse(ctx, prompt, system, temperature)
	})
	metrics.ObserveLLMLatency(llm.TaskSQLGeneration, time.Since(start))
	if err != nil {
		g.logger.Warn("SQL generation call failed",
			zap.String("model", client.GetModel()),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		reason := "language model call failed"
		if errors.Is(err, workers.ErrPoolTimeout) {
			reason = "language model call timed out"
		}
		return nil, apperrors.NewGenerationFailure(reason, llm.ClassifyError(err))
	}

	syntax := req.Dialect.Syntax()
	raw := llm.StripThinking(result.Content)
	cleaned, err := syntax.CleanGeneratedSQL(raw)
	if err != nil {
		g.logger.Warn("Generated text is not usable SQL",
			zap.String("output", logging.TruncateString(raw, 200)),
			zap.Error(err))
		return nil, apperrors.NewGenerationFailure("model output is not a SQL statement", err)
	}

	quoted := syntax.QuoteIdentifiers(cleaned, req.Tables, req.Quote)

	if hits := syntax.CheckLiterals(quoted); len(hits) > 0 {
		g.logger.Warn("Generated SQL contains a suspicious literal",
			zap.String("fingerprint", hits[0].Fingerprint))
		return nil, apperrors.NewGenerationFailure("generated SQL contains a suspicious string literal", nil)
	}

	g.logger.Debug("Generated SQL",
		zap.String("sql", logging.SanitizeQuery(quoted)),
		zap.Duration("elapsed", time.Since(start)))

	return &GeneratedSQL{SQL: quoted, Model: client.GetModel()}, nil
}
