// Package repositories holds storage abstractions shared across domains.
package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a group of repository calls atomically.
type TransactionManager interface {
	// ExecTx executes fn within a transaction. Repositories called with the
	// context fn receives take part in that transaction.
	ExecTx(ctx context.Context, fn TxFn) error
}
