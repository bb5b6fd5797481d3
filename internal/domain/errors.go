package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNotBookable = errors.New("listing is not bookable")
)
