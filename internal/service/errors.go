package service

import "errors"

// Business errors returned by the service layer. Handlers map these to
// HTTP statuses or websocket error messages; anything else is treated
// as an internal error.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidRoomPassword  = errors.New("invalid room password")
	ErrRoomFull             = errors.New("room is full")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalServer       = errors.New("internal server error")
)
