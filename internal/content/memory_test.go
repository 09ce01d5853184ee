package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actout/actout/internal/models"
)

func TestMemoryStoreCategories(t *testing.T) {
	s := NewMemoryStore()
	active := models.Category{ID: uuid.New(), Name: "Movies", IsActive: true}
	inactive := models.Category{ID: uuid.New(), Name: "Retired", IsActive: false}
	s.AddCategory(active)
	s.AddCategory(inactive)

	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Movies", cats[0].Name)

	got, err := s.GetCategory(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.Name, got.Name)

	_, err = s.GetCategory(context.Background(), uuid.New())
	assert.True(t, models.IsKind(err, models.ErrNotFound))
}

func TestMemoryStoreDrawPrompt(t *testing.T) {
	s := NewMemoryStore()
	catID := uuid.New()
	s.AddCategory(models.Category{ID: catID, Name: "Movies", IsActive: true})

	ids := make([]uuid.UUID, 3)
	for i, title := range []string{"Jaws", "Rocky", "Titanic"} {
		ids[i] = uuid.New()
		s.AddPrompt(models.Prompt{ID: ids[i], CategoryID: catID, Title: title, IsActive: true})
	}

	ctx := context.Background()

	// Excluding all but one pins the draw.
	p, err := s.DrawPrompt(ctx, catID, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, ids[2], p.ID)

	// An exhausted category falls back to repeats instead of failing.
	p, err = s.DrawPrompt(ctx, catID, ids)
	require.NoError(t, err)
	assert.Contains(t, ids, p.ID)

	_, err = s.DrawPrompt(ctx, uuid.New(), nil)
	assert.True(t, models.IsKind(err, models.ErrNotFound))
}

func TestMemoryStoreMarkPromptUsed(t *testing.T) {
	s := NewMemoryStore()
	id := uuid.New()
	s.AddPrompt(models.Prompt{ID: id, CategoryID: uuid.New(), Title: "Jaws", IsActive: true})

	require.NoError(t, s.MarkPromptUsed(context.Background(), id))
	require.NoError(t, s.MarkPromptUsed(context.Background(), id))

	p, err := s.GetPrompt(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TimesUsed)

	err = s.MarkPromptUsed(context.Background(), uuid.New())
	assert.True(t, models.IsKind(err, models.ErrNotFound))
}

func TestSeededMemoryStore(t *testing.T) {
	s := NewSeededMemoryStore()

	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 4)

	for _, cat := range cats {
		p, err := s.DrawPrompt(context.Background(), cat.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, cat.ID, p.CategoryID)
		assert.NotEmpty(t, p.Title)
	}
}
