package handler

import (
	"net/http"

	"github.com/Astemirdum/booktracker/internal/errs"
	"github.com/Astemirdum/booktracker/internal/model"
	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/Astemirdum/booktracker/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) SignupPage(c echo.Context) error {
	data := h.newViewData(c, "Sign Up")
	data.Form = model.SignupForm{}
	return c.Render(http.StatusOK, "signup.html", data)
}

func (h *Handler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var form model.SignupForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form.Username = h.policy.Sanitize(form.Username)
	if err := c.Validate(&form); err != nil {
		data := h.newViewData(c, "Sign Up")
		data.Form = form
		data.Errors = validate.Fields(err)
		return c.Render(http.StatusOK, "signup.html", data)
	}

	if err := h.auth.RegisterUser(ctx, form); err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			data := h.newViewData(c, "Sign Up")
			data.Form = form
			data.Errors = map[string]string{"username": "A user with that username already exists."}
			return c.Render(http.StatusOK, "signup.html", data)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.startSession(c, form.Username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.flash(c, flashSuccess, "Account created successfully! Welcome to BookTracker!")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) LoginPage(c echo.Context) error {
	data := h.newViewData(c, "Log In")
	data.Form = model.LoginForm{}
	return c.Render(http.StatusOK, "login.html", data)
}

func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var form model.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&form); err != nil {
		data := h.newViewData(c, "Log In")
		data.Form = form
		data.Errors = validate.Fields(err)
		return c.Render(http.StatusOK, "login.html", data)
	}

	user, err := h.auth.Authorize(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, errs.ErrBadLogin) {
			data := h.newViewData(c, "Log In")
			data.Form = form
			data.FormError = "Please enter a correct username and password."
			return c.Render(http.StatusOK, "login.html", data)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.startSession(c, user.Username); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/books/")
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	h.flash(c, flashSuccess, "You have been logged out successfully!")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) startSession(c echo.Context, username string) error {
	token, expires, err := auth.NewToken(username, h.jwtKey, auth.TokenTTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
