package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// ResponseRepository stores answered questions so they can be replayed.
type ResponseRepository interface {
	// Save inserts a new record. A second save for the same project and
	// response id returns apperrors.ErrConflict and leaves the first intact.
	Save(ctx context.Context, resp *models.CachedResponse) error
	// Get returns apperrors.ErrNotFound when nothing is stored under the id.
	Get(ctx context.Context, projectID, responseID string) (*models.CachedResponse, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type responseRepository struct {
	db Querier
}

// NewResponseRepository creates a repository over the response_logs table.
func NewResponseRepository(db Querier) ResponseRepository {
	return &responseRepository{db: db}
}

var _ ResponseRepository = (*responseRepository)(nil)

func (r *responseRepository) Save(ctx context.Context, resp *models.CachedResponse) error {
	if resp.ProjectID == "" || resp.ResponseID == "" {
		return fmt.Errorf("%w: project id and response id are required", apperrors.ErrInvalidInput)
	}
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	now := time.Now().UTC()
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now

	filterJSON, err := json.Marshal(resp.QueryFilterData)
	if err != nil {
		return fmt.Errorf("failed to marshal query_filter_data: %w", err)
	}
	metadataJSON, err := json.Marshal(resp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO response_logs (
			id, project_id, response_id, question, generated_sql,
			query_filter_data, answer, quotation, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		resp.ID,
		resp.ProjectID,
		resp.ResponseID,
		resp.Question,
		resp.GeneratedSQL,
		filterJSON,
		resp.Answer,
		resp.Quotation,
		metadataJSON,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	if err != nil {
		// Unique constraint violation (PostgreSQL error code 23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to save response: %w", err)
	}

	return nil
}

func (r *responseRepository) Get(ctx context.Context, projectID, responseID string) (*models.CachedResponse, error) {
	query := `
		SELECT id, project_id, response_id, question, generated_sql,
		       query_filter_data, answer, quotation, metadata,
		       created_at, updated_at
		FROM response_logs
		WHERE project_id = $1 AND response_id = $2`

	var resp models.CachedResponse
	var filterJSON, metadataJSON []byte
	err := r.db.QueryRow(ctx, query, projectID, responseID).Scan(
		&resp.ID,
		&resp.ProjectID,
		&resp.ResponseID,
		&resp.Question,
		&resp.GeneratedSQL,
		&filterJSON,
		&resp.Answer,
		&resp.Quotation,
		&metadataJSON,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &resp.QueryFilterData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal query_filter_data: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &resp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &resp, nil
}
