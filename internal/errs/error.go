package errs

import (
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrUserExists = errors.New("username is already taken")
	ErrBadLogin   = errors.New("invalid username or password")
)
