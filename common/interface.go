package common

import "time"

// FileLoggingHandler defines a file logging component able to rotate its log files
type FileLoggingHandler interface {
	ChangeFileLifeSpan(newDuration time.Duration, newSizeInMB uint64) error
	Close() error
	IsInterfaceNil() bool
}
