package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/metrics"
	"github.com/ekaya-inc/askdb/pkg/models"
	"github.com/ekaya-inc/askdb/pkg/prompts"
	"github.com/ekaya-inc/askdb/pkg/repositories"
	sqlutil "github.com/ekaya-inc/askdb/pkg/sql"
)

// FallbackModelName is recorded as the model when a heuristic query was used.
const FallbackModelName = "keyword-fallback"

var (
	// ErrCacheMiss is returned by Replay for an unknown response id.
	ErrCacheMiss = fmt.Errorf("cached response %w", apperrors.ErrNotFound)

	// ErrReplayEmpty is returned when a replayed query yields no rows.
	ErrReplayEmpty = errors.New("replayed query returned no rows")
)

// Pipeline stages named in PipelineError.
const (
	StageGeneration = "generation"
	StageExecution  = "execution"
	StageReplay     = "replay"
)

// PipelineError reports which stage failed and, past generation, the SQL
// that was tried.
type PipelineError struct {
	Stage string
	SQL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ConnectorOpener opens a connector for a project's connection profile.
type ConnectorOpener func(ctx context.Context, profile models.ConnectionProfile, logger *zap.Logger) (datasource.Connector, error)

// PipelineService answers questions and replays cached answers.
type PipelineService interface {
	Ask(ctx context.Context, projectID, question string) (*models.AskResult, error)
	Replay(ctx context.Context, projectID, responseID string) (*models.AskResult, error)
	// Schema returns the schema description the model sees for a project.
	Schema(ctx context.Context, projectID string) (prompts.SchemaDescription, error)
}

// PipelineDeps collects the collaborators of the pipeline.
type PipelineDeps struct {
	Projects  repositories.ProjectRepository
	Responses repositories.ResponseRepository
	Open      ConnectorOpener
	Generator SQLGenerator
	Fallback  FallbackBuilder
	Executor  QueryExecutor
	Answers   AnswerSynthesizer
}

type pipelineService struct {
	deps   PipelineDeps
	now    func() time.Time
	logger *zap.Logger
}

// NewPipelineService wires the pipeline. A nil Open uses datasource.Open.
func NewPipelineService(deps PipelineDeps, logger *zap.Logger) PipelineService {
	if deps.Open == nil {
		deps.Open = datasource.Open
	}
	return &pipelineService{
		deps:   deps,
		now:    time.Now,
		logger: logger.Named("pipeline"),
	}
}

var _ PipelineService = (*pipelineService)(nil)

func (s *pipelineService) Schema(ctx context.Context, projectID string) (prompts.SchemaDescription, error) {
	project, err := s.deps.Projects.Get(ctx, projectID)
	if err != nil {
		return prompts.SchemaDescription{}, err
	}
	return prompts.DescribeSchema(project.Tables)
}

// Ask runs generate, correct, execute, analyse and explain for one question.
// The answer is cached on a best-effort basis.
func (s *pipelineService) Ask(ctx context.Context, projectID, question string) (result *models.AskResult, err error) {
	defer func() { metrics.ObserveAsk("ask", err) }()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput)
	}

	project, err := s.deps.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	schema, err := prompts.DescribeSchema(project.Tables)
	if err != nil {
		return nil, err
	}

	conn, err := s.deps.Open(ctx, project.Connection, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to project database: %w", err)
	}
	defer s.closeConnector(conn)

	dialect := conn.Dialect()
	sqlText, model, usedFallback, err := s.generate(ctx, question, project, schema, conn)
	if err != nil {
		metrics.ObserveGeneration(dialect.String(), metrics.OutcomeFailed)
		return nil, &PipelineError{Stage: StageGeneration, Err: err}
	}

	rs, err := s.deps.Executor.Execute(ctx, conn, sqlText, project.Tables)
	if err != nil {
		return nil, executionError(sqlText, err)
	}

	rows := rs.Records()
	filter := sqlutil.ExtractQueryMetadata(sqlText, rs.Columns)
	stats := ComputeStatistics(rows, rs.Columns, filter)
	answer := s.deps.Answers.Synthesize(ctx, question, sqlText, rows, stats)

	now := s.now().UTC()
	meta := models.ResponseMetadata{
		SourceTables:      sqlutil.ExtractTableNames(sqlText),
		GeneratedAt:       now,
		LLMModel:          model,
		DatabaseType:      dialect.String(),
		TotalRowsReturned: len(rows),
		UsedFallback:      usedFallback,
	}

	result = &models.AskResult{
		ResponseID:      models.NewResponseID(now),
		Question:        question,
		GeneratedSQL:    sqlText,
		QueryFilterData: filter,
		Columns:         rs.Columns,
		Rows:            rows,
		Markdown:        rs.Markdown,
		Statistics:      stats,
		Answer:          answer.Text,
		Quotation:       answer.Quotation,
		Metadata:        meta,
	}

	s.save(ctx, projectID, result)
	return result, nil
}

// generate returns SQL from the model, corrected for hallucinated table
// names, or a heuristic query when the model's output was unusable.
func (s *pipelineService) generate(ctx context.Context, question string, project *models.Project, schema prompts.SchemaDescription, conn datasource.Connector) (sqlText, model string, usedFallback bool, err error) {
	dialect := conn.Dialect().String()

	generated, genErr := s.deps.Generator.Generate(ctx, GenerationRequest{
		Question: question,
		Schema:   schema,
		Tables:   project.Tables,
		Dialect:  conn.Dialect(),
		Quote:    conn.QuoteIdentifier,
	})
	if genErr == nil {
		corrector := sqlutil.NewTableCorrector(schema.TableNames(), conn.QuoteIdentifier)
		corrected, changed := corrector.Correct(generated.SQL)
		if changed {
			s.logger.Info("Corrected hallucinated table names",
				zap.String("project_id", project.ID),
				zap.String("sql", corrected))
			metrics.ObserveGeneration(dialect, metrics.OutcomeCorrected)
		} else {
			metrics.ObserveGeneration(dialect, metrics.OutcomeGenerated)
		}
		return corrected, generated.Model, false, nil
	}

	if !apperrors.IsGenerationFailure(genErr) || s.deps.Fallback == nil {
		return "", "", false, genErr
	}

	fallbackSQL, err := s.deps.Fallback.Build(question, project.Tables, conn.QuoteIdentifier)
	if err != nil {
		s.logger.Warn("SQL generation failed and no fallback matched",
			zap.String("project_id", project.ID),
			zap.Error(genErr))
		return "", "", false, genErr
	}

	metrics.ObserveGeneration(dialect, metrics.OutcomeFallback)
	return fallbackSQL, FallbackModelName, true, nil
}

// Replay re-executes a cached response's SQL against current data. The
// stored answer and quotation are returned with the fresh rows; nothing is
// regenerated.
func (s *pipelineService) Replay(ctx context.Context, projectID, responseID string) (result *models.AskResult, err error) {
	defer func() { metrics.ObserveAsk("replay", err) }()

	cached, err := s.deps.Responses.Get(ctx, projectID, responseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to load cached response: %w", err)
	}

	project, err := s.deps.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	conn, err := s.deps.Open(ctx, project.Connection, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to project database: %w", err)
	}
	defer s.closeConnector(conn)

	rs, err := s.deps.Executor.Execute(ctx, conn, cached.GeneratedSQL, project.Tables)
	if err != nil {
		return nil, executionError(cached.GeneratedSQL, err)
	}
	if len(rs.Rows) == 0 {
		return nil, &PipelineError{Stage: StageReplay, SQL: cached.GeneratedSQL, Err: ErrReplayEmpty}
	}

	rows := rs.Records()
	filter := sqlutil.ExtractQueryMetadata(cached.GeneratedSQL, rs.Columns)
	meta := cached.Metadata
	meta.TotalRowsReturned = len(rows)

	return &models.AskResult{
		ResponseID:      cached.ResponseID,
		Question:        cached.Question,
		GeneratedSQL:    cached.GeneratedSQL,
		QueryFilterData: filter,
		Columns:         rs.Columns,
		Rows:            rows,
		Markdown:        rs.Markdown,
		Statistics:      ComputeStatistics(rows, rs.Columns, filter),
		Answer:          cached.Answer,
		Quotation:       cached.Quotation,
		Metadata:        meta,
	}, nil
}

func (s *pipelineService) save(ctx context.Context, projectID string, result *models.AskResult) {
	if s.deps.Responses == nil {
		return
	}
	err := s.deps.Responses.Save(ctx, &models.CachedResponse{
		ResponseID:      result.ResponseID,
		ProjectID:       projectID,
		Question:        result.Question,
		GeneratedSQL:    result.GeneratedSQL,
		QueryFilterData: result.QueryFilterData,
		Answer:          result.Answer,
		Quotation:       result.Quotation,
		Metadata:        result.Metadata,
		CreatedAt:       result.Metadata.GeneratedAt,
	})
	metrics.ObserveCacheSave(err)
	if err != nil {
		s.logger.Warn("Failed to cache response",
			zap.String("project_id", projectID),
			zap.String("response_id", result.ResponseID),
			zap.Error(err))
	}
}

func (s *pipelineService) closeConnector(conn datasource.Connector) {
	if err := conn.Close(); err != nil {
		s.logger.Warn("Failed to close connector", zap.Error(err))
	}
}

func executionError(sqlText string, err error) *PipelineError {
	var ef *apperrors.ExecutionFailure
	if errors.As(err, &ef) && ef.SQL != "" {
		sqlText = ef.SQL
	}
	return &PipelineError{Stage: StageExecution, SQL: sqlText, Err: err}
}
