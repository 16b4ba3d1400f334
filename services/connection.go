package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/wallet"
)

// WalletConnectionManager links and unlinks wallets for callers who are
// already authenticated.
type WalletConnectionManager struct {
	store  core.IdentityStore
	logger *slog.Logger
}

func NewWalletConnectionManager(store core.IdentityStore, logger *slog.Logger) *WalletConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletConnectionManager{store: store, logger: logger}
}

// Connect binds address to identityID unless a different wallet is already
// bound. The passkey rules of AccountBinder do not apply.
func (m *WalletConnectionManager) Connect(ctx context.Context, identityID, address string) (core.BindingOutcome, error) {
	address = wallet.Canonicalize(address)

	identity, err := m.current(ctx, identityID)
	if err != nil {
		return core.BindingOutcome{}, err
	}

	if identity.Preferences.HasWallet() {
		return compareWallet(identity, address)
	}

	if _, err := m.store.UpdatePreferences(ctx, identity.ID, identity.Preferences.WithWallet(address)); err != nil {
		return core.BindingOutcome{}, storeError("bind wallet", err)
	}

	m.logger.InfoContext(ctx, "wallet connected",
		slog.String("identity_id", identity.ID),
		slog.String("wallet", wallet.Short(address)),
	)
	return core.BindingOutcome{Kind: core.OutcomeBound, IdentityID: identity.ID}, nil
}

// Disconnect clears the bound wallet. It reports whether one was bound and
// is a no-op otherwise.
func (m *WalletConnectionManager) Disconnect(ctx context.Context, identityID string) (bool, error) {
	identity, err := m.current(ctx, identityID)
	if err != nil {
		return false, err
	}
	if !identity.Preferences.HasWallet() {
		return false, nil
	}

	if _, err := m.store.UpdatePreferences(ctx, identity.ID, identity.Preferences.WithoutWallet()); err != nil {
		return false, storeError("unbind wallet", err)
	}

	m.logger.InfoContext(ctx, "wallet disconnected", slog.String("identity_id", identity.ID))
	return true, nil
}

// current re-reads the identity so decisions use the stored state rather
// than whatever the session resolved earlier.
func (m *WalletConnectionManager) current(ctx context.Context, identityID string) (*core.Identity, error) {
	if identityID == "" {
		return nil, core.ErrNotAuthenticated
	}
	identity, err := m.store.GetIdentityByID(ctx, identityID)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return nil, fmt.Errorf("get identity: %w", core.ErrSessionNotFound)
	}
	if err != nil {
		return nil, storeError("get identity", err)
	}
	return identity, nil
}
