package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Astemirdum/booktracker/pkg/auth"
	md "github.com/Astemirdum/booktracker/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("test-jwt-key")

// whoami reports the requester identity the middleware put in context.
func whoami(c echo.Context) error {
	username, err := auth.GetUserName(c.Request().Context())
	if err != nil {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, username)
}

func authCookie(t *testing.T, username string, key []byte) *http.Cookie {
	t.Helper()
	token, _, err := auth.NewToken(username, key, auth.TokenTTL)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func TestSessionAuth(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode     int
		expectedLocation string
		expectedBody     string
	}
	var tests = []struct {
		name     string
		cookie   *http.Cookie
		response response
	}{
		{
			name: "err. anonymous redirects to login",
			response: response{
				expectedCode:     http.StatusFound,
				expectedLocation: "/login/",
			},
		},
		{
			name:   "err. garbage token redirects to login",
			cookie: &http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"},
			response: response{
				expectedCode:     http.StatusFound,
				expectedLocation: "/login/",
			},
		},
		{
			name:   "err. token signed with another key redirects to login",
			cookie: authCookie(t, "alice", []byte("another-key")),
			response: response{
				expectedCode:     http.StatusFound,
				expectedLocation: "/login/",
			},
		},
		{
			name:   "ok. valid cookie passes identity through",
			cookie: authCookie(t, "alice", jwtKey),
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: "alice",
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/books/", whoami, md.SessionAuth(jwtKey))

			r := httptest.NewRequest(http.MethodGet, "/books/", http.NoBody)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedLocation != "" {
				require.Equal(t, tt.response.expectedLocation, w.Header().Get(echo.HeaderLocation))
			}
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, w.Body.String())
			}
		})
	}
}

func TestSessionAuthOptional(t *testing.T) {
	t.Parallel()

	t.Run("ok. anonymous passes through", func(t *testing.T) {
		t.Parallel()
		e := echo.New()
		e.GET("/", whoami, md.SessionAuthOptional(jwtKey))

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("ok. invalid token stays anonymous", func(t *testing.T) {
		t.Parallel()
		e := echo.New()
		e.GET("/", whoami, md.SessionAuthOptional(jwtKey))

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"})
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("ok. valid cookie passes identity through", func(t *testing.T) {
		t.Parallel()
		e := echo.New()
		e.GET("/", whoami, md.SessionAuthOptional(jwtKey))

		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.AddCookie(authCookie(t, "alice", jwtKey))
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "alice", w.Body.String())
	})
}
