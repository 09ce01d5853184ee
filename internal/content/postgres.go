package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actout/actout/internal/models"
)

// PostgresStore serves the catalog from Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pgx pool and verifies it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, name_ar, genre, difficulty, icon, is_active
		FROM categories
		WHERE is_active
		ORDER BY genre, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NameAr, &c.Genre, &c.Difficulty, &c.Icon, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, name_ar, genre, difficulty, icon, is_active
		FROM categories
		WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.NameAr, &c.Genre, &c.Difficulty, &c.Icon, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewGameError(models.ErrNotFound, "category %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DrawPrompt(ctx context.Context, categoryID uuid.UUID, exclude []uuid.UUID) (*models.Prompt, error) {
	p, err := s.drawPrompt(ctx, categoryID, exclude)
	if models.IsKind(err, models.ErrNotFound) && len(exclude) > 0 {
		// Everything has been used this game; allow repeats.
		return s.drawPrompt(ctx, categoryID, nil)
	}
	return p, err
}

func (s *PostgresStore) drawPrompt(ctx context.Context, categoryID uuid.UUID, exclude []uuid.UUID) (*models.Prompt, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	var p models.Prompt
	err := s.pool.QueryRow(ctx, `
		SELECT id, category_id, title, title_ar, image_url, difficulty, times_used, is_active
		FROM prompts
		WHERE category_id = $1 AND is_active AND NOT (id = ANY($2))
		ORDER BY random()
		LIMIT 1`, categoryID, exclude).
		Scan(&p.ID, &p.CategoryID, &p.Title, &p.TitleAr, &p.ImageURL, &p.Difficulty, &p.TimesUsed, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewGameError(models.ErrNotFound, "no prompts available in category %s", categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to draw prompt: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	var p models.Prompt
	err := s.pool.QueryRow(ctx, `
		SELECT id, category_id, title, title_ar, image_url, difficulty, times_used, is_active
		FROM prompts
		WHERE id = $1`, id).
		Scan(&p.ID, &p.CategoryID, &p.Title, &p.TitleAr, &p.ImageURL, &p.Difficulty, &p.TimesUsed, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewGameError(models.ErrNotFound, "prompt %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) MarkPromptUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE prompts SET times_used = times_used + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark prompt used: %w", err)
	}
	return nil
}
