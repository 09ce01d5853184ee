package content

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/actout/actout/internal/models"
)

// MemoryStore is an in-process catalog used in development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]models.Category
	prompts    map[uuid.UUID]models.Prompt
}

// NewMemoryStore builds an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[uuid.UUID]models.Category),
		prompts:    make(map[uuid.UUID]models.Prompt),
	}
}

// NewSeededMemoryStore builds a catalog with a small starter set so a dev
// server is playable without a database.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	seed := map[models.Category][]string{
		{Name: "Movies", Genre: models.GenreMovies, Difficulty: "medium", Icon: "🎬"}:       {"The Matrix", "Titanic", "Jaws", "Inception", "Jurassic Park", "Rocky"},
		{Name: "TV Shows", Genre: models.GenreTVShows, Difficulty: "medium", Icon: "📺"}:    {"Friends", "Breaking Bad", "The Office", "Lost", "Seinfeld"},
		{Name: "Sports", Genre: models.GenreSports, Difficulty: "easy", Icon: "⚽"}:          {"Basketball", "Swimming", "Boxing", "Golf", "Archery"},
		{Name: "Video Games", Genre: models.GenreVideoGames, Difficulty: "hard", Icon: "🎮"}: {"Tetris", "Pac-Man", "Minecraft", "Mario Kart"},
	}
	for cat, titles := range seed {
		cat.ID = uuid.New()
		cat.IsActive = true
		s.AddCategory(cat)
		for i, title := range titles {
			s.AddPrompt(models.Prompt{
				ID:         uuid.New(),
				CategoryID: cat.ID,
				Title:      title,
				Difficulty: 1 + i%5,
				IsActive:   true,
			})
		}
	}
	return s
}

// AddCategory inserts or replaces a category.
func (s *MemoryStore) AddCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// AddPrompt inserts or replaces a prompt.
func (s *MemoryStore) AddPrompt(p models.Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.ID] = p
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Category
	for _, c := range s.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, models.NewGameError(models.ErrNotFound, "category %s not found", id)
	}
	return &c, nil
}

func (s *MemoryStore) DrawPrompt(ctx context.Context, categoryID uuid.UUID, exclude []uuid.UUID) (*models.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var fresh, all []models.Prompt
	for _, p := range s.prompts {
		if p.CategoryID != categoryID || !p.IsActive {
			continue
		}
		all = append(all, p)
		if _, used := excluded[p.ID]; !used {
			fresh = append(fresh, p)
		}
	}
	pool := fresh
	if len(pool) == 0 {
		// Everything has been used this game; allow repeats.
		pool = all
	}
	if len(pool) == 0 {
		return nil, models.NewGameError(models.ErrNotFound, "no prompts available in category %s", categoryID)
	}
	p := pool[rand.Intn(len(pool))]
	return &p, nil
}

func (s *MemoryStore) GetPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[id]
	if !ok {
		return nil, models.NewGameError(models.ErrNotFound, "prompt %s not found", id)
	}
	return &p, nil
}

func (s *MemoryStore) MarkPromptUsed(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prompts[id]
	if !ok {
		return models.NewGameError(models.ErrNotFound, "prompt %s not found", id)
	}
	p.TimesUsed++
	s.prompts[id] = p
	return nil
}
