package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/crypto"
)

// Requirement: an issued secret is single-use and only valid for its identity.
func TestTokenIssuer_Issue(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeIdentityStore()
	identity := store.Seed(&core.Identity{Email: "a@x.com"})
	other := store.Seed(&core.Identity{Email: "b@x.com"})
	issuer := NewTokenIssuer(store)

	// Act
	token, err := issuer.Issue(ctx, identity.ID)

	// Assert
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token.Secret == "" || token.IdentityID != identity.ID {
		t.Fatalf("Issue() = %+v", token)
	}

	hash := crypto.HashToken(token.Secret)
	if err := store.ConsumeTransferToken(ctx, other.ID, hash); !errors.Is(err, core.ErrInvalidToken) {
		t.Errorf("consume for another identity error = %v, want ErrInvalidToken", err)
	}
	if err := store.ConsumeTransferToken(ctx, identity.ID, hash); err != nil {
		t.Errorf("first consume error = %v", err)
	}
	if err := store.ConsumeTransferToken(ctx, identity.ID, hash); !errors.Is(err, core.ErrInvalidToken) {
		t.Errorf("second consume error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_IssueShouldWrapStoreFailures(t *testing.T) {
	store := NewFakeIdentityStore()
	identity := store.Seed(&core.Identity{Email: "a@x.com"})
	store.TokenErr = errors.New("connection reset")

	_, err := NewTokenIssuer(store).Issue(context.Background(), identity.ID)
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Issue() error = %v, want ErrStoreUnavailable", err)
	}
}
