package model

import (
	"database/sql"
	"time"
)

type Genre string

const (
	GenreNovel           Genre = "Novel"
	GenreScienceFiction  Genre = "Science Fiction"
	GenreHistory         Genre = "History"
	GenreSelfDevelopment Genre = "Self Development"
	GenreBiography       Genre = "Biography"
	GenreLiterature      Genre = "Literature"
	GenrePoetry          Genre = "Poetry"
	GenreChildren        Genre = "Children"
	GenreOther           Genre = "Other"
)

// Genres in form-select order.
func Genres() []Genre {
	return []Genre{
		GenreNovel,
		GenreScienceFiction,
		GenreHistory,
		GenreSelfDevelopment,
		GenreBiography,
		GenreLiterature,
		GenrePoetry,
		GenreChildren,
		GenreOther,
	}
}

type Book struct {
	ID              int            `db:"id"`
	BookUid         string         `db:"book_uid"`
	Title           string         `db:"title"`
	Author          string         `db:"author"`
	Genre           Genre          `db:"genre"`
	Description     string         `db:"description"`
	PublicationYear int            `db:"publication_year"`
	IsRead          bool           `db:"is_read"`
	CreatedAt       time.Time      `db:"created_at"`
	// Username is nullable: legacy rows may carry no owner and are then
	// visible to nobody (the gate compares requester to a non-null owner).
	Username sql.NullString `db:"username"`
}

type Review struct {
	ID      int       `db:"id"`
	BookID  int       `db:"book_id"`
	Date    time.Time `db:"date"`
	Rating  int       `db:"rating"`
	Comment string    `db:"comment"`
}

type User struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Stats is the home-page display model. The three counts come from
// independent queries and are informational only.
type Stats struct {
	TotalBooks  int `db:"total_books"`
	ReadBooks   int `db:"read_books"`
	UnreadBooks int `db:"unread_books"`
}

type BookForm struct {
	Title           string `form:"title" validate:"required,max=200"`
	Author          string `form:"author" validate:"required,max=100"`
	Genre           Genre  `form:"genre" validate:"required,oneof=Novel 'Science Fiction' History 'Self Development' Biography Literature Poetry Children Other"`
	Description     string `form:"description" validate:"max=500"`
	PublicationYear int    `form:"publication_year" validate:"required,min=1000,max=2025"`
	IsRead          bool   `form:"is_read"`
}

type ReviewForm struct {
	// Rating stays a string through binding: an unparsable value is a
	// validation error, not a bind fault.
	Rating  string `form:"rating"`
	Comment string `form:"comment"`
}

type SignupForm struct {
	Username        string `form:"username" validate:"required,max=150"`
	Email           string `form:"email" validate:"omitempty,email"`
	Password        string `form:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
