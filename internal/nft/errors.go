package nft

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected reports that no contract binding exists, either
	// because construction failed or a nil client was passed around.
	ErrNotConnected = errors.New("nft client not connected")

	// ErrEventNotFound reports that a confirmed receipt did not contain
	// the expected contract event.
	ErrEventNotFound = errors.New("event not found in receipt")
)

// ValidationError rejects caller-supplied input before any chain call is
// made. A ValidationError guarantees the contract was never invoked.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RevertError reports a transaction that was included in a block but
// reverted by the contract.
type RevertError struct {
	Op     string
	TxHash string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s: transaction %s reverted", e.Op, e.TxHash)
}
