package ledger

import "errors"

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrTransactionFailed     = errors.New("account transaction failed")
	ErrFailedToConnectToDB   = errors.New("failed to connect to the document store")
	ErrInvalidAccountRecord  = errors.New("invalid account record")
	ErrUnexpectedResultShape = errors.New("unexpected transaction result shape")
)
