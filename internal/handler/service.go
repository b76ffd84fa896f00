package handler

import (
	"context"

	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/Astemirdum/booktracker/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	ListBooks(ctx context.Context, username string) ([]model.Book, error)
	GetBook(ctx context.Context, username, bookUid string) (model.Book, []model.Review, error)
	CreateBook(ctx context.Context, username string, form model.BookForm) (model.Book, error)
	UpdateBook(ctx context.Context, username, bookUid string, form model.BookForm) error
	DeleteBook(ctx context.Context, username, bookUid string) error
	AddReview(ctx context.Context, username, bookUid string, rating int, comment string) error
	ToggleRead(ctx context.Context, username, bookUid string) (bool, error)
	Stats(ctx context.Context, username string) (model.Stats, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, form model.SignupForm) error
	Authorize(ctx context.Context, username, password string) (model.User, error)
}

var _ BookService = (*service.Service)(nil)
var _ AuthService = (*service.Service)(nil)
