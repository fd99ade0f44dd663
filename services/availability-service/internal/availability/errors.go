package availability

import "errors"

var (
	ErrInvalidTimezone      = errors.New("invalid timezone")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrNotFound             = errors.New("not found")
	ErrMalformedInterval    = errors.New("malformed interval")
	ErrAmbiguousLocalTime   = errors.New("ambiguous local time")
	ErrNonexistentLocalTime = errors.New("nonexistent local time")

	// ErrInvalidStoredData wraps failures caused by a persisted doctor,
	// opening, unavailability or booking row rather than by the query.
	ErrInvalidStoredData = errors.New("invalid stored data")
)

// IsInputError reports whether err was caused by the caller's query rather
// than by stored data or a collaborator failure.
func IsInputError(err error) bool {
	if errors.Is(err, ErrInvalidStoredData) {
		return false
	}
	return errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrMalformedInterval)
}

// IsLocalTimeError reports whether err came from a DST gap or fold.
func IsLocalTimeError(err error) bool {
	return errors.Is(err, ErrAmbiguousLocalTime) || errors.Is(err, ErrNonexistentLocalTime)
}
