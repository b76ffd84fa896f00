package handler

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/Astemirdum/booktracker/web"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	sessionName = "booktracker_session"

	flashSuccess = "success"
	flashError   = "error"
)

// Renderer serves the embedded pages, each parsed against the base layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() *Renderer {
	files, err := fs.Glob(web.TemplateFS, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		pages[name] = template.Must(
			template.New(name).ParseFS(web.TemplateFS, "templates/base.html", file))
	}
	return &Renderer{pages: pages}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

type flash struct {
	Level   string
	Message string
}

type viewData struct {
	Title    string
	Username string
	CSRF     string
	Flashes  []flash

	Form      interface{}
	Errors    map[string]string
	FormError string

	Book    *model.Book
	Books   []model.Book
	Reviews []model.Review
	Stats   model.Stats
	Genres  []model.Genre
}

func (h *Handler) newViewData(c echo.Context, title string) viewData {
	data := viewData{
		Title:   title,
		Flashes: h.popFlashes(c),
	}
	if username, err := auth.GetUserName(c.Request().Context()); err == nil {
		data.Username = username
	}
	if token, ok := c.Get("csrf").(string); ok {
		data.CSRF = token
	}
	return data
}

// flash queues a one-shot message in the cookie session. Best effort: a page
// without the session middleware simply shows no flashes.
func (h *Handler) flash(c echo.Context, level, message string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return
	}
	sess.AddFlash(level + "|" + message)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		h.log.Warn("flash save: " + err.Error())
	}
}

func (h *Handler) popFlashes(c echo.Context) []flash {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	// Flashes() consumes; persist the now-empty session
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		h.log.Warn("flash save: " + err.Error())
	}

	flashes := make([]flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		level, message, found := strings.Cut(s, "|")
		if !found {
			level, message = flashSuccess, s
		}
		flashes = append(flashes, flash{Level: level, Message: message})
	}
	return flashes
}

func (h *Handler) renderNotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "not_found.html", h.newViewData(c, "Not Found"))
}
