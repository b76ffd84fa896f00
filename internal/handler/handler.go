package handler

import (
	"fmt"
	"net/http"
	"strconv"

	md "github.com/Astemirdum/booktracker/pkg/middleware"

	"github.com/Astemirdum/booktracker/config"
	"github.com/Astemirdum/booktracker/internal/errs"
	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/Astemirdum/booktracker/pkg/validate"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	books      BookService
	auth       AuthService
	jwtKey     []byte
	sessionKey []byte
	policy     *bluemonday.Policy
	log        *zap.Logger
}

func New(bookSvc BookService, authSvc AuthService, cfg *config.Config, log *zap.Logger) *Handler {
	h := &Handler{
		books:      bookSvc,
		auth:       authSvc,
		jwtKey:     []byte(cfg.Auth.JWTKey),
		sessionKey: []byte(cfg.Auth.SessionKey),
		policy:     bluemonday.StrictPolicy(),
		log:        log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		appRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))

	e.Renderer = NewRenderer()
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	pages := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(appRPS),
		session.Middleware(sessions.NewCookieStore(h.sessionKey)),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup: "form:csrf",
		}),
	)

	public := pages.Group("", md.SessionAuthOptional(h.jwtKey))
	public.GET("/", h.Home)
	public.GET("/about/", h.About)
	public.GET("/signup/", h.SignupPage)
	public.POST("/signup/", h.Signup)
	public.GET("/login/", h.LoginPage)
	public.POST("/login/", h.Login)
	public.GET("/logout/", h.Logout)

	books := pages.Group("/books", md.SessionAuth(h.jwtKey))
	books.GET("/", h.ListBooks)
	books.GET("/create/", h.CreateBookPage)
	books.POST("/create/", h.CreateBook)
	books.GET("/:bookUid/", h.GetBook)
	books.GET("/:bookUid/update/", h.UpdateBookPage)
	books.POST("/:bookUid/update/", h.UpdateBook)
	books.GET("/:bookUid/delete/", h.DeleteBookPage)
	books.POST("/:bookUid/delete/", h.DeleteBook)
	books.GET("/:bookUid/review/", h.AddReviewRedirect)
	books.POST("/:bookUid/review/", h.AddReview)
	books.POST("/:bookUid/toggle-read/", h.ToggleRead)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	data := h.newViewData(c, "Home")

	// anonymous visitors see zero stats
	if username, err := auth.GetUserName(ctx); err == nil {
		stats, err := h.books.Stats(ctx, username)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		data.Stats = stats
	}
	return c.Render(http.StatusOK, "home.html", data)
}

func (h *Handler) About(c echo.Context) error {
	return c.Render(http.StatusOK, "about.html", h.newViewData(c, "About"))
}

func (h *Handler) ListBooks(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	books, err := h.books.ListBooks(ctx, username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := h.newViewData(c, "My Books")
	data.Books = books
	return c.Render(http.StatusOK, "book_list.html", data)
}

func (h *Handler) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	book, reviews, err := h.books.GetBook(ctx, username, c.Param("bookUid"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := h.newViewData(c, book.Title)
	data.Book = &book
	data.Reviews = reviews
	return c.Render(http.StatusOK, "book_detail.html", data)
}

func (h *Handler) CreateBookPage(c echo.Context) error {
	data := h.newViewData(c, "Add Book")
	data.Form = model.BookForm{}
	data.Genres = model.Genres()
	return c.Render(http.StatusOK, "book_form.html", data)
}

func (h *Handler) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	var form model.BookForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.sanitizeBookForm(&form)
	if err := c.Validate(&form); err != nil {
		data := h.newViewData(c, "Add Book")
		data.Form = form
		data.Errors = validate.Fields(err)
		data.Genres = model.Genres()
		return c.Render(http.StatusOK, "book_form.html", data)
	}

	if _, err := h.books.CreateBook(ctx, username, form); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.flash(c, flashSuccess, "Book added successfully!")
	return c.Redirect(http.StatusSeeOther, "/books/")
}

func (h *Handler) UpdateBookPage(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	book, _, err := h.books.GetBook(ctx, username, c.Param("bookUid"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := h.newViewData(c, "Edit Book")
	data.Book = &book
	data.Form = model.BookForm{
		Title:           book.Title,
		Author:          book.Author,
		Genre:           book.Genre,
		Description:     book.Description,
		PublicationYear: book.PublicationYear,
		IsRead:          book.IsRead,
	}
	data.Genres = model.Genres()
	return c.Render(http.StatusOK, "book_form.html", data)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}
	bookUid := c.Param("bookUid")

	// gate before form processing: a foreign or missing uid is 404 even on bad input
	if _, _, err := h.books.GetBook(ctx, username, bookUid); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var form model.BookForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.sanitizeBookForm(&form)
	if err := c.Validate(&form); err != nil {
		data := h.newViewData(c, "Edit Book")
		// the form action needs the uid to keep posting to the update URL
		data.Book = &model.Book{BookUid: bookUid}
		data.Form = form
		data.Errors = validate.Fields(err)
		data.Genres = model.Genres()
		return c.Render(http.StatusOK, "book_form.html", data)
	}

	if err := h.books.UpdateBook(ctx, username, bookUid, form); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.flash(c, flashSuccess, "Book updated successfully!")
	return c.Redirect(http.StatusSeeOther, "/books/")
}

func (h *Handler) DeleteBookPage(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	book, _, err := h.books.GetBook(ctx, username, c.Param("bookUid"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := h.newViewData(c, "Delete Book")
	data.Book = &book
	return c.Render(http.StatusOK, "book_confirm_delete.html", data)
}

// DeleteBook is unconditional once reached: the confirm step is the GET page.
func (h *Handler) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	if err := h.books.DeleteBook(ctx, username, c.Param("bookUid")); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.flash(c, flashSuccess, "Book deleted successfully!")
	return c.Redirect(http.StatusSeeOther, "/books/")
}

// AddReviewRedirect: a GET on the review URL has no side effect.
func (h *Handler) AddReviewRedirect(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/books/%s/", c.Param("bookUid")))
}

func (h *Handler) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}
	bookUid := c.Param("bookUid")
	detailURL := fmt.Sprintf("/books/%s/", bookUid)

	var form model.ReviewForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form.Comment = h.policy.Sanitize(form.Comment)

	if form.Rating == "" || form.Comment == "" {
		h.flash(c, flashError, "Please fill all fields")
		return c.Redirect(http.StatusSeeOther, detailURL)
	}
	rating, err := strconv.Atoi(form.Rating)
	if err != nil {
		h.flash(c, flashError, "Rating must be a number from 1 to 5")
		return c.Redirect(http.StatusSeeOther, detailURL)
	}

	switch err := h.books.AddReview(ctx, username, bookUid, rating, form.Comment); {
	case err == nil:
		h.flash(c, flashSuccess, "Review added successfully!")
	case errors.Is(err, errs.ErrNotFound):
		return h.renderNotFound(c)
	case errors.Is(err, errs.ErrValidation):
		h.flash(c, flashError, "Rating must be a number from 1 to 5")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, detailURL)
}

func (h *Handler) ToggleRead(c echo.Context) error {
	ctx := c.Request().Context()
	username, err := auth.GetUserName(ctx)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login/")
	}

	isRead, err := h.books.ToggleRead(ctx, username, c.Param("bookUid"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.renderNotFound(c)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := "Unread"
	if isRead {
		status = "Read"
	}
	h.flash(c, flashSuccess, fmt.Sprintf("Book status changed to: %s", status))
	return c.Redirect(http.StatusSeeOther, "/books/")
}

func (h *Handler) sanitizeBookForm(form *model.BookForm) {
	form.Title = h.policy.Sanitize(form.Title)
	form.Author = h.policy.Sanitize(form.Author)
	form.Description = h.policy.Sanitize(form.Description)
}
