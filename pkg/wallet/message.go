package wallet

import (
	"strings"

	"github.com/lborres/walletbind/core"
)

const (
	DefaultMessagePrefix = "Sign this message to prove you own this wallet.\n" +
		"This request will not trigger a blockchain transaction or cost any gas.\n\n" +
		"Nonce: "

	MaxNonceLength = 256
)

// BuildSignableMessage wraps nonce in the fixed template. The caller owns
// nonce freshness; no time window is enforced here.
func (v *Verifier) BuildSignableMessage(nonce string) string {
	return v.prefix + nonce
}

// ValidateNonce checks the nonce shape only: non-empty, a single line and at
// most MaxNonceLength bytes.
func ValidateNonce(nonce string) error {
	if nonce == "" || len(nonce) > MaxNonceLength || strings.ContainsAny(nonce, "\r\n") {
		return core.ErrInvalidNonce
	}
	return nil
}

// ResolveMessage returns the text the wallet must have signed.
//
// With a nonce the message is rebuilt from the template; a message sent
// alongside must then equal it. Without one, message must itself follow the
// template.
func (v *Verifier) ResolveMessage(message, nonce string) (string, error) {
	if nonce != "" {
		if err := ValidateNonce(nonce); err != nil {
			return "", err
		}
		built := v.BuildSignableMessage(nonce)
		if message != "" && message != built {
			return "", core.ErrInvalidMessage
		}
		return built, nil
	}

	if message == "" {
		return "", core.ErrMessageRequired
	}
	if !strings.HasPrefix(message, v.prefix) {
		return "", core.ErrInvalidMessage
	}
	if err := ValidateNonce(strings.TrimPrefix(message, v.prefix)); err != nil {
		return "", core.ErrInvalidMessage
	}
	return message, nil
}
