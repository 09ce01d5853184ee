package models

import "github.com/google/uuid"

// CategoryGenre groups categories for the picker UI.
type CategoryGenre string

const (
	GenreMovies      CategoryGenre = "movies"
	GenreActors      CategoryGenre = "actors"
	GenreTVShows     CategoryGenre = "tv_shows"
	GenreAnime       CategoryGenre = "anime"
	GenreSports      CategoryGenre = "sports"
	GenreCelebrities CategoryGenre = "celebrities"
	GenreVideoGames  CategoryGenre = "video_games"
	GenreGeneral     CategoryGenre = "general"
)

// Category is a prompt collection players can enable for a game.
type Category struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	NameAr     string        `json:"name_ar,omitempty"`
	Genre      CategoryGenre `json:"genre"`
	Difficulty string        `json:"difficulty"`
	Icon       string        `json:"icon"`
	IsActive   bool          `json:"is_active"`
}

// Prompt is one thing to act out. Only ever delivered to the acting
// player, via the token-gated fetch.
type Prompt struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Title      string    `json:"title"`
	TitleAr    string    `json:"title_ar,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Difficulty int       `json:"difficulty"` // 1-5
	TimesUsed  int       `json:"times_used"`
	IsActive   bool      `json:"is_active"`
}
