package store

import "errors"

// ErrTransactionFailed is returned when a transaction cannot be started or committed.
var ErrTransactionFailed = errors.New("transaction failed")
