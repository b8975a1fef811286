package interfaces

import "context"

// TxManager runs a function inside a database transaction. The transaction
// is carried in the context; repositories pick it up transparently.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// AdvisoryLock takes a pg transaction-scoped advisory lock on key.
	// Must be called inside InTx.
	AdvisoryLock(ctx context.Context, key string) error
}
