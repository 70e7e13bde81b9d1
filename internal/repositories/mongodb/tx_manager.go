package mongodb

import (
	"context"

	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ repositories.TxManager = (*TxManager)(nil)

// TxManager runs callbacks inside MongoDB multi-document transactions.
// Transactions need a replica set or sharded cluster.
type TxManager struct {
	client *mongo.Client
}

// NewTxManager creates a TxManager bound to client
func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

// RunInTx runs fn in a transaction. The session context handed to fn must
// be used for every repository call that belongs to the transaction; the
// driver retries fn on transient transaction errors.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
