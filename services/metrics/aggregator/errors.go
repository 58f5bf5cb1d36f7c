package aggregator

import "errors"

var (
	errNoAdapters     = errors.New("no adapters provided")
	errNilAdapter     = errors.New("nil adapter")
	errDuplicatedName = errors.New("duplicated adapter name")
	errUnknownAdapter = errors.New("unknown adapter")
)
