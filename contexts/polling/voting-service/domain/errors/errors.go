package errors

import "errors"

var (
	ErrInvalidPollInput   = errors.New("invalid poll input")
	ErrPollNotFound       = errors.New("poll not found")
	ErrUnknownPoll        = errors.New("no voting known for poll")
	ErrDuplicateVote      = errors.New("identity already voted in poll")
	ErrTallyAlreadyExists = errors.New("poll tally already exists")
	ErrConflict           = errors.New("poll conflict")
)
