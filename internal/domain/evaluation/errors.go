package evaluation

import "errors"

var (
	ErrUnknownEmployee = errors.New("employee not present in snapshot")
	ErrInvalidRating   = errors.New("rating must be A, B or C")
	ErrMissingRater    = errors.New("rater is required")
)
