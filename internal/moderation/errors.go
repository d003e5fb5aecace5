package moderation

import "errors"

// Sentinel errors returned by report intake and restoration. Handlers match
// these with errors.Is to pick status codes and stable user-facing messages;
// anything else is treated as a transient store failure.
var (
	ErrContentNotFound     = errors.New("content not found")
	ErrContentNotAvailable = errors.New("content no longer available")
	ErrSelfReport          = errors.New("cannot report your own content")
	ErrDuplicateReport     = errors.New("content already reported by this user")
)
