// Package mongodb is the MongoDB store backend
package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/decoflow/production-service/internal/domain"
	pkgmongo "github.com/decoflow/production-service/pkg/mongodb"
)

// Transactor runs units of work in a multi-document transaction
type Transactor struct {
	client *pkgmongo.Client
}

// NewTransactor creates a Transactor
func NewTransactor(client *pkgmongo.Client) *Transactor {
	return &Transactor{client: client}
}

// WithinTransaction joins the session in ctx or starts a new transaction
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	err := t.client.WithTransaction(ctx, fn)
	if isWriteConflict(err) {
		return errors.Join(domain.ErrVersionConflict, err)
	}
	return err
}

func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(112) || se.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
