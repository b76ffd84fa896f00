package service_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/Astemirdum/booktracker/internal/errs"
	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/Astemirdum/booktracker/internal/service"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	repo_mocks "github.com/Astemirdum/booktracker/internal/repository/mocks"
)

const bookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"

func storedBook(owner string, valid bool) model.Book {
	return model.Book{
		ID:       42,
		BookUid:  bookUid,
		Title:    "Dune",
		Author:   "Frank Herbert",
		Genre:    model.GenreScienceFiction,
		Username: sql.NullString{String: owner, Valid: valid},
	}
}

func TestService_GetBook_Gate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type mockBehavior func(r *repo_mocks.MockRepository)
	var tests = []struct {
		name         string
		requester    string
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name:      "ok. owner passes the gate",
			requester: "alice",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
				r.EXPECT().ListReviews(ctx, 42).Return([]model.Review{{ID: 1, BookID: 42, Rating: 5, Comment: "Great"}}, nil)
			},
		},
		{
			name:      "err. foreign book reads as not found",
			requester: "bob",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:      "err. ownerless legacy book denies everyone",
			requester: "alice",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("", false), nil)
			},
			wantErr: errs.ErrNotFound,
		},
		{
			name:      "err. missing book",
			requester: "alice",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(model.Book{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			svc := service.NewService(repo, zap.NewExample().Named("test"))

			book, reviews, err := svc.GetBook(ctx, tt.requester, bookUid)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Dune", book.Title)
			require.Len(t, reviews, 1)
		})
	}
}

func TestService_AddReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type mockBehavior func(r *repo_mocks.MockRepository)
	var tests = []struct {
		name         string
		rating       int
		comment      string
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name:    "ok",
			rating:  5,
			comment: "Great",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
				r.EXPECT().CreateReview(ctx, 42, 5, "Great").Return(model.Review{ID: 1}, nil)
			},
		},
		{
			name:    "err. rating below range",
			rating:  0,
			comment: "Great",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
			},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "err. rating above range",
			rating:  6,
			comment: "Great",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
			},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "err. comment too long",
			rating:  3,
			comment: strings.Repeat("x", 501),
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
			},
			wantErr: errs.ErrValidation,
		},
		{
			name:    "err. gate first, no validation on foreign book",
			rating:  9,
			comment: "Great",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetBook(ctx, bookUid).Return(storedBook("bob", true), nil)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			svc := service.NewService(repo, zap.NewExample().Named("test"))

			err := svc.AddReview(ctx, "alice", bookUid, tt.rating, tt.comment)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	repo.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil)
	repo.EXPECT().DeleteBook(ctx, 42).Return(nil)
	svc := service.NewService(repo, zap.NewExample().Named("test"))

	require.NoError(t, svc.DeleteBook(ctx, "alice", bookUid))
}

func TestService_ToggleRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	repo.EXPECT().GetBook(ctx, bookUid).Return(storedBook("alice", true), nil).Times(2)
	first := repo.EXPECT().ToggleRead(ctx, 42).Return(true, nil)
	repo.EXPECT().ToggleRead(ctx, 42).Return(false, nil).After(first)
	svc := service.NewService(repo, zap.NewExample().Named("test"))

	// toggling twice lands back where it started
	isRead, err := svc.ToggleRead(ctx, "alice", bookUid)
	require.NoError(t, err)
	require.True(t, isRead)

	isRead, err = svc.ToggleRead(ctx, "alice", bookUid)
	require.NoError(t, err)
	require.False(t, isRead)
}

func TestService_Stats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		repo.EXPECT().CountBooks(gomock.Any(), "alice").Return(5, nil)
		repo.EXPECT().CountBooksByRead(gomock.Any(), "alice", true).Return(2, nil)
		repo.EXPECT().CountBooksByRead(gomock.Any(), "alice", false).Return(3, nil)
		svc := service.NewService(repo, zap.NewExample().Named("test"))

		stats, err := svc.Stats(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, model.Stats{TotalBooks: 5, ReadBooks: 2, UnreadBooks: 3}, stats)
	})

	t.Run("err. one counter failing fails the lot", func(t *testing.T) {
		t.Parallel()
		c := gomock.NewController(t)
		defer c.Finish()
		repo := repo_mocks.NewMockRepository(c)
		repo.EXPECT().CountBooks(gomock.Any(), "alice").Return(0, errors.New("db internal"))
		repo.EXPECT().CountBooksByRead(gomock.Any(), "alice", true).Return(2, nil).AnyTimes()
		repo.EXPECT().CountBooksByRead(gomock.Any(), "alice", false).Return(3, nil).AnyTimes()
		svc := service.NewService(repo, zap.NewExample().Named("test"))

		_, err := svc.Stats(ctx, "alice")
		require.Error(t, err)
	})
}

func TestService_RegisterUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)

	var stored model.User
	repo.EXPECT().
		CreateUser(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, user model.User) error {
			stored = user
			return nil
		})
	svc := service.NewService(repo, zap.NewExample().Named("test"))

	err := svc.RegisterUser(ctx, model.SignupForm{
		Username:        "alice",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", stored.Username)
	// never the plaintext
	require.NotEqual(t, "correct horse", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))
}

func TestService_Authorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	aliceRow := model.User{ID: 1, Username: "alice", PasswordHash: string(hash)}

	type mockBehavior func(r *repo_mocks.MockRepository)
	var tests = []struct {
		name         string
		password     string
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name:     "ok",
			password: "correct horse",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetUser(ctx, "alice").Return(aliceRow, nil)
			},
		},
		{
			name:     "err. wrong password",
			password: "battery staple",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetUser(ctx, "alice").Return(aliceRow, nil)
			},
			wantErr: errs.ErrBadLogin,
		},
		{
			name:     "err. unknown user looks like a bad login",
			password: "correct horse",
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().GetUser(ctx, "alice").Return(model.User{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrBadLogin,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			svc := service.NewService(repo, zap.NewExample().Named("test"))

			user, err := svc.Authorize(ctx, "alice", tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "alice", user.Username)
		})
	}
}
