package services

import "errors"

// The service layer converts every lower-level failure into one of these
// before it reaches a handler. Handlers map them onto HTTP statuses.
var (
	ErrEmailTaken             = errors.New("email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrActivationCodeMismatch = errors.New("invalid activation code")
	ErrTokenInvalid           = errors.New("invalid or expired token")
	ErrUnauthenticated        = errors.New("please login to access this resource")
	ErrForbidden              = errors.New("you are not allowed to access this resource")
	ErrMailDispatch           = errors.New("could not send activation email")
	ErrUserNotFound           = errors.New("user not found")
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInternal               = errors.New("internal server error")
)
