package application

import "errors"

// Errors returned to the interface layer. Token failures are deliberately
// collapsed into ErrInvalidToken.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginNotAllowed    = errors.New("account is not allowed to log in")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("insufficient privileges")
	ErrGoogleAccountInUse = errors.New("google account is linked to another user")
	ErrStorageUnavailable = errors.New("avatar storage not configured")
)
