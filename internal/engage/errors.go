package engage

import "errors"

var (
	ErrNotFound           = errors.New("engage: not found")
	ErrConflict           = errors.New("engage: resource conflict")
	ErrInvalidInput       = errors.New("engage: invalid input")
	ErrInsufficientPoints = errors.New("engage: insufficient points")
	ErrItemUnavailable    = errors.New("engage: item unavailable")
)
