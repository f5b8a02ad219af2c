package domain

import "errors"

var (
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)
