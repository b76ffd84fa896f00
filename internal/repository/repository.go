package repository

import (
	"context"
	"database/sql"

	"github.com/Astemirdum/booktracker/internal/errs"
	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, username string, form model.BookForm) (model.Book, error)
	ListBooks(ctx context.Context, username string) ([]model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	UpdateBook(ctx context.Context, id int, form model.BookForm) error
	DeleteBook(ctx context.Context, id int) error
	ToggleRead(ctx context.Context, id int) (bool, error)
	CountBooks(ctx context.Context, username string) (int, error)
	CountBooksByRead(ctx context.Context, username string, isRead bool) (int, error)
	ListReviews(ctx context.Context, bookID int) ([]model.Review, error)
	CreateReview(ctx context.Context, bookID, rating int, comment string) (model.Review, error)
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, username string) (model.User, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName   = `users`
	booksTableName   = `books`
	reviewsTableName = `reviews`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) CreateBook(ctx context.Context, username string, form model.BookForm) (model.Book, error) {
	q, args, err := qb.Insert(booksTableName).
		Columns("book_uid", "title", "author", "genre", "description", "publication_year", "is_read", "username").
		Values(uuid.NewString(), form.Title, form.Author, form.Genre, form.Description, form.PublicationYear, form.IsRead, username).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", q), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, username string) ([]model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "title", "author", "genre", "description", "publication_year", "is_read", "created_at", "username").
		From(booksTableName).
		Where(sq.Eq{"username": username}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	q, args, err := qb.Select("id", "book_uid", "title", "author", "genre", "description", "publication_year", "is_read", "created_at", "username").
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

// UpdateBook mutates the mutable columns only: owner, book_uid and created_at
// survive every update.
func (r *repository) UpdateBook(ctx context.Context, id int, form model.BookForm) error {
	q, args, err := qb.Update(booksTableName).
		Set("title", form.Title).
		Set("author", form.Author).
		Set("genre", form.Genre).
		Set("description", form.Description).
		Set("publication_year", form.PublicationYear).
		Set("is_read", form.IsRead).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("UpdateBook", zap.String("q", q), zap.Any("args", args))
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteBook removes the book and its reviews in one transaction. The schema
// cascade would do the same; the explicit two-step keeps the delete auditable.
func (r *repository) DeleteBook(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `delete from reviews where book_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from books where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit()
}

func (r *repository) ToggleRead(ctx context.Context, id int) (bool, error) {
	q := `
update books
    set is_read = not is_read
where id = $1
returning is_read`

	var isRead bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&isRead); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, errs.ErrNotFound
		}
		return false, err
	}
	return isRead, nil
}

func (r *repository) CountBooks(ctx context.Context, username string) (int, error) {
	q := `
	select count(*) from books
	where username = $1
`
	var count int
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountBooksByRead(ctx context.Context, username string, isRead bool) (int, error) {
	q := `
	select count(*) from books
	where username = $1 and is_read = $2
`
	var count int
	if err := r.db.QueryRowContext(ctx, q, username, isRead).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListReviews(ctx context.Context, bookID int) ([]model.Review, error) {
	q, args, err := qb.Select("id", "book_id", "date", "rating", "comment").
		From(reviewsTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("date desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var reviews []model.Review
	if err := r.db.SelectContext(ctx, &reviews, q, args...); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *repository) CreateReview(ctx context.Context, bookID, rating int, comment string) (model.Review, error) {
	q, args, err := qb.Insert(reviewsTableName).
		Columns("book_id", "rating", "comment").
		Values(bookID, rating, comment).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Review{}, err
	}

	var review model.Review
	if err := r.db.GetContext(ctx, &review, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// rating range backstop (reviews_rating_check)
			if pgErr.Code == pgerrcode.CheckViolation {
				return model.Review{}, errs.ErrValidation
			}
			if pgErr.Code == pgerrcode.ForeignKeyViolation {
				return model.Review{}, errs.ErrNotFound
			}
		}
		r.log.Error("CreateReview", zap.String("q", q), zap.Any("args", args))
		return model.Review{}, err
	}
	return review, nil
}

func (r *repository) CreateUser(ctx context.Context, user model.User) error {
	q, args, err := qb.Insert(usersTableName).
		Columns("username", "email", "password_hash").
		Values(user.Username, user.Email, user.PasswordHash).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return errs.ErrUserExists
		}
		return err
	}
	return nil
}

func (r *repository) GetUser(ctx context.Context, username string) (model.User, error) {
	q, args, err := qb.Select("id", "username", "email", "password_hash", "created_at").
		From(usersTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}
