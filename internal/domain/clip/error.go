package clip

import (
	"errors"
)

var (
	ErrStoreUnavailable   = errors.New("record store unavailable")
	ErrCopyFailed         = errors.New("snapshot copy failed")
	ErrAlreadyInitialized = errors.New("archive already initialized")
	ErrLockContention     = errors.New("archive locked by another process")
	ErrTransactionAborted = errors.New("merge transaction aborted")
	ErrInvalidArgument    = errors.New("invalid argument")
)
