// Package content provides the category and prompt catalog the session
// engine draws from. The engine only sees the Store interface; Postgres
// and in-memory implementations live alongside it.
package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/actout/actout/internal/models"
)

// Store is the read surface the session engine needs from the catalog.
type Store interface {
	// ListCategories returns all active categories.
	ListCategories(ctx context.Context) ([]models.Category, error)

	// GetCategory returns the category with the given id.
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)

	// DrawPrompt picks a random active prompt from the category, preferring
	// prompts not in exclude. When every prompt has been used the exclusion
	// is relaxed rather than failing the round.
	DrawPrompt(ctx context.Context, categoryID uuid.UUID, exclude []uuid.UUID) (*models.Prompt, error)

	// GetPrompt returns the prompt with the given id.
	GetPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error)

	// MarkPromptUsed bumps the prompt's usage counter.
	MarkPromptUsed(ctx context.Context, id uuid.UUID) error
}
