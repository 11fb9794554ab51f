package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divu-hq/module-builder/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL. Draft and module
// page trees are stored as JSONB documents so a snapshot is one row write.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Drafts ---

const draftColumns = `id, author_id, author_name, title, description, current_step, progress_percent, status, pages, revision, created_at, updated_at`

// CreateDraft inserts a new draft row
func (r *PostgresRepository) CreateDraft(ctx context.Context, d *models.Draft) error {
	pagesJSON, err := json.Marshal(d.Pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages: %w", err)
	}

	query := `
		INSERT INTO module_drafts (id, author_id, author_name, title, description, current_step, progress_percent, status, pages, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		d.ID,
		d.AuthorID,
		nullString(d.AuthorName),
		d.Title,
		d.Description,
		int(d.CurrentStep),
		d.ProgressPercent,
		string(d.Status),
		pagesJSON,
		d.Revision,
		d.CreatedAt,
		d.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	return nil
}

// GetDraft retrieves a draft by ID; (nil, nil) when the row does not exist
func (r *PostgresRepository) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM module_drafts WHERE id = $1`
	return r.scanDraftRow(r.pool.QueryRow(ctx, query, id))
}

// GetLatestDraft retrieves the most recently updated draft for an author,
// which is the one a returning user resumes
func (r *PostgresRepository) GetLatestDraft(ctx context.Context, authorID string) (*models.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM module_drafts
		WHERE author_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanDraftRow(r.pool.QueryRow(ctx, query, authorID))
}

func (r *PostgresRepository) scanDraftRow(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	var authorName sql.NullString
	var step int
	var status string
	var pagesJSON []byte

	err := row.Scan(
		&d.ID,
		&d.AuthorID,
		&authorName,
		&d.Title,
		&d.Description,
		&step,
		&d.ProgressPercent,
		&status,
		&pagesJSON,
		&d.Revision,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	d.AuthorName = authorName.String
	d.CurrentStep = models.Step(step)
	d.Status = models.DraftStatus(status)

	if err := json.Unmarshal(pagesJSON, &d.Pages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pages: %w", err)
	}
	if d.Pages == nil {
		d.Pages = []models.Page{}
	}

	return &d, nil
}

// UpdateDraft writes the full snapshot and returns the stored revision after
// the write. The revision increments server-side on every update, so the
// returned value tells the caller whether anyone else wrote in between.
func (r *PostgresRepository) UpdateDraft(ctx context.Context, d *models.Draft) (int64, error) {
	pagesJSON, err := json.Marshal(d.Pages)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal pages: %w", err)
	}

	query := `
		UPDATE module_drafts
		SET title = $2, description = $3, current_step = $4, progress_percent = $5,
		    status = $6, pages = $7, revision = revision + 1, updated_at = $8
		WHERE id = $1
		RETURNING revision
	`

	var revision int64
	err = r.pool.QueryRow(ctx, query,
		d.ID,
		d.Title,
		d.Description,
		int(d.CurrentStep),
		d.ProgressPercent,
		string(d.Status),
		pagesJSON,
		d.UpdatedAt,
	).Scan(&revision)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("draft not found: %s", d.ID)
		}
		return 0, fmt.Errorf("failed to update draft: %w", err)
	}

	return revision, nil
}

// DeleteDraft deletes a draft by ID
func (r *PostgresRepository) DeleteDraft(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM module_drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("draft not found: %s", id)
	}

	return nil
}

// ListDrafts returns drafts matching filters, most recently updated first
func (r *PostgresRepository) ListDrafts(ctx context.Context, filters models.DraftFilters) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM module_drafts WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.AuthorID != "" {
		query += fmt.Sprintf(" AND author_id = $%d", argNum)
		args = append(args, filters.AuthorID)
		argNum++
	}

	query += " ORDER BY updated_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	return r.queryDrafts(ctx, query, args...)
}

// GetStaleDrafts returns drafts not touched since the given time
func (r *PostgresRepository) GetStaleDrafts(ctx context.Context, idleSince time.Time) ([]*models.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM module_drafts
		WHERE updated_at < $1
		ORDER BY updated_at ASC
	`
	return r.queryDrafts(ctx, query, idleSince)
}

func (r *PostgresRepository) queryDrafts(ctx context.Context, query string, args ...interface{}) ([]*models.Draft, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft

	for rows.Next() {
		d, err := r.scanDraftRow(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}

	return drafts, nil
}

// --- Modules ---

// PublishModule inserts the module row and deletes the source draft in one
// transaction, so a published module can never exist alongside its draft and
// a failed publish leaves the draft untouched.
func (r *PostgresRepository) PublishModule(ctx context.Context, m *models.Module, draftID string) error {
	pagesJSON, err := json.Marshal(m.Pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO modules (id, title, description, created_by, estimated_time_min, pages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := tx.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.CreatedBy,
		m.EstimatedTimeMin,
		pagesJSON,
		m.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM module_drafts WHERE id = $1`, draftID); err != nil {
		return fmt.Errorf("failed to delete draft after publish: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit publish: %w", err)
	}

	return nil
}

// DeleteModule deletes a module by ID
func (r *PostgresRepository) DeleteModule(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("module not found: %s", id)
	}

	return nil
}

// GetModule retrieves a module by ID; (nil, nil) when not found
func (r *PostgresRepository) GetModule(ctx context.Context, id string) (*models.Module, error) {
	query := `
		SELECT id, title, description, created_by, estimated_time_min, pages, created_at
		FROM modules
		WHERE id = $1
	`

	var m models.Module
	var pagesJSON []byte

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.CreatedBy,
		&m.EstimatedTimeMin,
		&pagesJSON,
		&m.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	if err := json.Unmarshal(pagesJSON, &m.Pages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pages: %w", err)
	}

	return &m, nil
}

// ListModules returns modules matching filters, newest first
func (r *PostgresRepository) ListModules(ctx context.Context, filters models.ModuleFilters) ([]*models.Module, error) {
	query := `
		SELECT id, title, description, created_by, estimated_time_min, pages, created_at
		FROM modules
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", argNum)
		args = append(args, filters.CreatedBy)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*models.Module

	for rows.Next() {
		var m models.Module
		var pagesJSON []byte

		if err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Description,
			&m.CreatedBy,
			&m.EstimatedTimeMin,
			&pagesJSON,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}

		if err := json.Unmarshal(pagesJSON, &m.Pages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pages: %w", err)
		}

		modules = append(modules, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}

	return modules, nil
}

// --- API Clients ---

// GetClientByAPIKey retrieves an API client by its key; (nil, nil) when unknown
func (r *PostgresRepository) GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.APIClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.APIKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helper for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
