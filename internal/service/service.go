package service

import (
	"context"

	"github.com/Astemirdum/booktracker/internal/errs"
	"github.com/Astemirdum/booktracker/internal/model"
	bookRepo "github.com/Astemirdum/booktracker/internal/repository"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	log  *zap.Logger
	repo bookRepo.Repository
}

func NewService(repo bookRepo.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// getOwnedBook is the access gate: a book that does not exist, has no owner or
// belongs to someone else is reported as not found. Callers never learn which.
func (s *Service) getOwnedBook(ctx context.Context, username, bookUid string) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, bookUid)
	if err != nil {
		return model.Book{}, err
	}
	if !book.Username.Valid || book.Username.String != username {
		return model.Book{}, errs.ErrNotFound
	}
	return book, nil
}

func (s *Service) ListBooks(ctx context.Context, username string) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, username)
}

func (s *Service) GetBook(ctx context.Context, username, bookUid string) (model.Book, []model.Review, error) {
	book, err := s.getOwnedBook(ctx, username, bookUid)
	if err != nil {
		return model.Book{}, nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, book.ID)
	if err != nil {
		return model.Book{}, nil, err
	}
	return book, reviews, nil
}

func (s *Service) CreateBook(ctx context.Context, username string, form model.BookForm) (model.Book, error) {
	return s.repo.CreateBook(ctx, username, form)
}

func (s *Service) UpdateBook(ctx context.Context, username, bookUid string, form model.BookForm) error {
	book, err := s.getOwnedBook(ctx, username, bookUid)
	if err != nil {
		return err
	}
	return s.repo.UpdateBook(ctx, book.ID, form)
}

func (s *Service) DeleteBook(ctx context.Context, username, bookUid string) error {
	book, err := s.getOwnedBook(ctx, username, bookUid)
	if err != nil {
		return err
	}
	return s.repo.DeleteBook(ctx, book.ID)
}

func (s *Service) AddReview(ctx context.Context, username, bookUid string, rating int, comment string) error {
	book, err := s.getOwnedBook(ctx, username, bookUid)
	if err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return errs.ErrValidation
	}
	if comment == "" || len(comment) > 500 {
		return errs.ErrValidation
	}
	_, err = s.repo.CreateReview(ctx, book.ID, rating, comment)
	return err
}

func (s *Service) ToggleRead(ctx context.Context, username, bookUid string) (bool, error) {
	book, err := s.getOwnedBook(ctx, username, bookUid)
	if err != nil {
		return false, err
	}
	return s.repo.ToggleRead(ctx, book.ID)
}

// Stats issues the three counters concurrently. They are informational and
// need not be mutually consistent.
func (s *Service) Stats(ctx context.Context, username string) (model.Stats, error) {
	var stats model.Stats
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		var err error
		stats.TotalBooks, err = s.repo.CountBooks(ctx, username)
		return err
	})
	gg.Go(func() error {
		var err error
		stats.ReadBooks, err = s.repo.CountBooksByRead(ctx, username, true)
		return err
	})
	gg.Go(func() error {
		var err error
		stats.UnreadBooks, err = s.repo.CountBooksByRead(ctx, username, false)
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

func (s *Service) RegisterUser(ctx context.Context, form model.SignupForm) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	user := model.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: string(hash),
	}
	return s.repo.CreateUser(ctx, user)
}

func (s *Service) Authorize(ctx context.Context, username, password string) (model.User, error) {
	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.ErrBadLogin
		}
		return model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, errs.ErrBadLogin
	}
	return user, nil
}
