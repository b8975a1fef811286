package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lokario/backoffice/interfaces"
)

type txKey struct{}

// dbFor returns the transaction carried in ctx, or the root handle. Every
// repository method goes through it so the same code runs inside and
// outside InTx.
func dbFor(ctx context.Context, root *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return root.WithContext(ctx)
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) interfaces.TxManager {
	return &txManager{db: db}
}

func (m *txManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// AdvisoryLock serializes work on a logical key for the duration of the
// enclosing transaction. hashtext maps the key into pg's bigint lock space.
func (m *txManager) AdvisoryLock(ctx context.Context, key string) error {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return gorm.ErrInvalidTransaction
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
