package adapters

import "errors"

var (
	errNilRowStore       = errors.New("nil row store")
	errInvalidWindowDays = errors.New("invalid trailing window, provide a positive number of days")
	errInvalidMaxRows    = errors.New("invalid row cap, provide a positive number of rows")
)
