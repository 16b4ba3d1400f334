package services

import (
	"context"

	"github.com/lborres/walletbind/core"
)

// TokenIssuer mints transfer tokens through the identity store.
type TokenIssuer struct {
	store core.IdentityStore
}

func NewTokenIssuer(store core.IdentityStore) *TokenIssuer {
	return &TokenIssuer{store: store}
}

func (i *TokenIssuer) Issue(ctx context.Context, identityID string) (*core.TransferToken, error) {
	token, err := i.store.CreateTransferToken(ctx, identityID)
	if err != nil {
		return nil, storeError("create transfer token", err)
	}
	return token, nil
}
