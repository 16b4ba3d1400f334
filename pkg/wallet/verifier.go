package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

var (
	ErrMalformedSignature = errors.New("malformed signature")
	ErrRecoveryFailed     = errors.New("signer recovery failed")
)

// Verifier checks EIP-191 personal_sign signatures against claimed wallet
// addresses and owns the template clients sign.
type Verifier struct {
	prefix string
}

type Config struct {
	// MessagePrefix precedes the nonce in every signable message.
	// Empty means DefaultMessagePrefix.
	MessagePrefix string
}

func NewVerifier(cfg Config) *Verifier {
	prefix := cfg.MessagePrefix
	if prefix == "" {
		prefix = DefaultMessagePrefix
	}
	return &Verifier{prefix: prefix}
}

// Verify reports whether signature over message was produced by the key
// behind claimedAddress. Every failure, including malformed input, is false.
func (v *Verifier) Verify(message, signature, claimedAddress string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	claimed := strings.TrimSpace(claimedAddress)
	if !IsValidAddress(claimed) {
		return false
	}

	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}

	return strings.EqualFold(recovered.Hex(), claimed)
}

// RecoverAddress returns the address whose key signed message.
// V may be 0/1 or the 27/28 wallet convention.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}

	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id", ErrMalformedSignature)
	}

	pub, err := crypto.SigToPub(PersonalMessageHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// PersonalMessageHash is keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func PersonalMessageHash(message string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return h.Sum(nil)
}

func decodeSignature(signature string) ([]byte, error) {
	s := strings.TrimSpace(signature)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedSignature)
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedSignature, len(sig))
	}

	return sig, nil
}
