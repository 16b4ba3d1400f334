package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/wallet"
)

// AccountBinder decides what a verified wallet signature for an email may do
// to the identity store: create, no-op, or reject.
type AccountBinder struct {
	store  core.IdentityStore
	logger *slog.Logger
}

func NewAccountBinder(store core.IdentityStore, logger *slog.Logger) *AccountBinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountBinder{store: store, logger: logger}
}

// Bind resolves email to an identity and applies the binding rules for
// address, which must already be verified.
//
// Only an email with no identity gets a wallet here. An existing identity
// without a wallet is never adopted, passkey or not.
func (b *AccountBinder) Bind(ctx context.Context, email, address string) (core.BindingOutcome, error) {
	address = wallet.Canonicalize(address)

	identity, err := b.lookup(ctx, email)
	if err != nil {
		return core.BindingOutcome{}, err
	}
	if identity != nil {
		return b.decide(identity, address)
	}

	created, err := b.store.CreateIdentity(ctx, email)
	if errors.Is(err, core.ErrIdentityExists) {
		// A concurrent request created it first. Re-resolve once.
		b.logger.DebugContext(ctx, "identity create raced, retrying lookup")
		identity, err = b.lookup(ctx, email)
		if err != nil {
			return core.BindingOutcome{}, err
		}
		if identity == nil {
			return core.BindingOutcome{}, fmt.Errorf("create identity: %w: exists but lookup found nothing", core.ErrStoreUnavailable)
		}
		return b.decide(identity, address)
	}
	if err != nil {
		return core.BindingOutcome{}, storeError("create identity", err)
	}

	if _, err := b.store.UpdatePreferences(ctx, created.ID, created.Preferences.WithWallet(address)); err != nil {
		return core.BindingOutcome{}, storeError("bind wallet", err)
	}

	b.logger.InfoContext(ctx, "identity created with wallet",
		slog.String("identity_id", created.ID),
		slog.String("wallet", wallet.Short(address)),
	)
	return core.BindingOutcome{Kind: core.OutcomeCreated, IdentityID: created.ID}, nil
}

func (b *AccountBinder) lookup(ctx context.Context, email string) (*core.Identity, error) {
	identities, err := b.store.FindIdentitiesByEmail(ctx, email)
	if err != nil {
		return nil, storeError("find identities", err)
	}

	switch len(identities) {
	case 0:
		return nil, nil
	case 1:
		return identities[0], nil
	default:
		b.logger.ErrorContext(ctx, "email resolves to several identities", slog.Int("count", len(identities)))
		return nil, core.ErrDuplicateEmail
	}
}

func (b *AccountBinder) decide(identity *core.Identity, address string) (core.BindingOutcome, error) {
	switch core.StateOf(identity) {
	case core.StateHasWallet:
		return compareWallet(identity, address)
	case core.StatePasskeyNoWallet:
		return core.BindingOutcome{}, core.ErrPasskeyProtected
	default:
		return core.BindingOutcome{}, core.ErrAccountExists
	}
}

// compareWallet handles an identity that already has a wallet bound.
// Stored values are canonicalized before comparing.
func compareWallet(identity *core.Identity, address string) (core.BindingOutcome, error) {
	if wallet.Canonicalize(identity.Preferences.Wallet()) == address {
		return core.BindingOutcome{Kind: core.OutcomeAlreadyBound, IdentityID: identity.ID}, nil
	}
	return core.BindingOutcome{}, core.ErrWalletConflict
}
