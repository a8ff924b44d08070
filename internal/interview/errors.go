package interview

import "errors"

var (
	// ErrConfiguration means no session can start, e.g. the seed pool is empty or unreadable.
	ErrConfiguration = errors.New("interview configuration error")
	// ErrNoActiveSession is returned when an answer arrives with no pending question.
	ErrNoActiveSession = errors.New("no active interview session")
	// ErrMalformedModelOutput is returned when the model reply cannot be parsed into a turn.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrModelUnavailable is returned when the model call itself fails or times out.
	ErrModelUnavailable = errors.New("model unavailable")
)
