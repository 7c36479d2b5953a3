package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAdminExists        = errors.New("an admin already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)
