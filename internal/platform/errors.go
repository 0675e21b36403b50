package platform

import (
	"errors"
)

// ErrAlreadyRunning is an error returned when a refresh can't be started because the previous one is not finished yet.
var ErrAlreadyRunning = errors.New("refresh already running for this query")
