package reconcile

import "errors"

// Sentinel errors for the reconcile service layer.
var (
	ErrNoInternalID = errors.New("message upsert returned no internal id")
)
