package core

// OutcomeKind enumerates the successful results of a binding decision.
// Rejections are not an OutcomeKind; they are returned as errors that
// match ErrBindingRejected.
type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota + 1
	OutcomeBound
	OutcomeAlreadyBound
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeBound:
		return "bound"
	case OutcomeAlreadyBound:
		return "already_bound"
	default:
		return "unknown"
	}
}

// BindingOutcome is the result of AccountBinder.Bind and
// WalletConnectionManager.Connect.
type BindingOutcome struct {
	Kind       OutcomeKind
	IdentityID string
}

func (o BindingOutcome) AlreadyBound() bool {
	return o.Kind == OutcomeAlreadyBound
}

// IdentityState is the decision-time state of an identity.
type IdentityState int

const (
	StateNoPasskeyNoWallet IdentityState = iota
	StatePasskeyNoWallet
	StateHasWallet
)

func (s IdentityState) String() string {
	switch s {
	case StatePasskeyNoWallet:
		return "passkey_no_wallet"
	case StateHasWallet:
		return "has_wallet"
	default:
		return "no_passkey_no_wallet"
	}
}

// StateOf classifies an identity. A bound wallet takes precedence over the
// passkey flag.
func StateOf(identity *Identity) IdentityState {
	switch {
	case identity.Preferences.HasWallet():
		return StateHasWallet
	case identity.Preferences.HasPasskey:
		return StatePasskeyNoWallet
	default:
		return StateNoPasskeyNoWallet
	}
}
