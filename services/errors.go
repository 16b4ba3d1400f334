package services

import (
	"errors"
	"fmt"

	"github.com/lborres/walletbind/core"
)

// storeError tags an unexpected store failure as ErrStoreUnavailable.
// Errors that already belong to the taxonomy keep their kind.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrStoreUnavailable),
		errors.Is(err, core.ErrNotAuthenticated),
		errors.Is(err, core.ErrMisconfigured):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
	}
}

// outcomeLabel names the result of a binding attempt for metrics and logs.
func outcomeLabel(outcome core.BindingOutcome, err error) string {
	switch {
	case err == nil:
		return outcome.Kind.String()
	case errors.Is(err, core.ErrPasskeyProtected):
		return "passkey_protected"
	case errors.Is(err, core.ErrAccountExists):
		return "account_exists"
	case errors.Is(err, core.ErrWalletConflict):
		return "wallet_conflict"
	case errors.Is(err, core.ErrMisconfigured):
		return "misconfigured"
	default:
		return "error"
	}
}
