package wallet

import (
	"crypto/ecdsa"
	"strings"
	"testing"
	"unicode"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type testSigner struct {
	key     *ecdsa.PrivateKey
	address string // EIP-55 checksummed
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return &testSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// newMixedCaseSigner returns a signer whose checksummed address has at least
// two upper and two lower case letters, so flipping one letter always breaks
// the checksum without making the address single-cased.
func newMixedCaseSigner(t *testing.T) *testSigner {
	t.Helper()
	for {
		s := newTestSigner(t)
		var upper, lower int
		for _, r := range s.address[2:] {
			switch {
			case unicode.IsUpper(r):
				upper++
			case unicode.IsLower(r):
				lower++
			}
		}
		if upper >= 2 && lower >= 2 {
			return s
		}
	}
}

func (s *testSigner) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := crypto.Sign(PersonalMessageHash(message), s.key)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig)
}

func flipFirstLetter(address string) string {
	b := []byte(address)
	for i := 2; i < len(b); i++ {
		r := rune(b[i])
		if unicode.IsLetter(r) {
			if unicode.IsUpper(r) {
				b[i] = byte(unicode.ToLower(r))
			} else {
				b[i] = byte(unicode.ToUpper(r))
			}
			break
		}
	}
	return string(b)
}

// Requirement: Verify returns true only for a signature by the claimed address over the exact message.
func TestVerifierVerify(t *testing.T) {
	v := NewVerifier(Config{})
	signer := newMixedCaseSigner(t)
	other := newTestSigner(t)
	message := v.BuildSignableMessage("nonce-123")
	signature := signer.sign(t, message)

	rawSig, _ := hexutil.Decode(signature)
	lowV := append([]byte(nil), rawSig...)
	lowV[64] -= 27
	badV := append([]byte(nil), rawSig...)
	badV[64] = 29

	tests := []struct {
		name      string
		message   string
		signature string
		address   string
		want      bool
	}{
		{name: "checksummed address", message: message, signature: signature, address: signer.address, want: true},
		{name: "lowercase address", message: message, signature: signature, address: strings.ToLower(signer.address), want: true},
		{name: "surrounding whitespace", message: message, signature: signature, address: "  " + signer.address + " ", want: true},
		{name: "signature without 0x prefix", message: message, signature: strings.TrimPrefix(signature, "0x"), address: signer.address, want: true},
		{name: "recovery id 0/1", message: message, signature: hexutil.Encode(lowV), address: signer.address, want: true},
		{name: "wrong checksum casing", message: message, signature: signature, address: flipFirstLetter(signer.address), want: false},
		{name: "different signer", message: message, signature: signature, address: other.address, want: false},
		{name: "different message", message: v.BuildSignableMessage("nonce-124"), signature: signature, address: signer.address, want: false},
		{name: "empty signature", message: message, signature: "", address: signer.address, want: false},
		{name: "garbage signature", message: message, signature: "0xnot-hex", address: signer.address, want: false},
		{name: "short signature", message: message, signature: "0x1234", address: signer.address, want: false},
		{name: "invalid recovery id", message: message, signature: hexutil.Encode(badV), address: signer.address, want: false},
		{name: "zero signature", message: message, signature: hexutil.Encode(make([]byte, 65)), address: signer.address, want: false},
		{name: "garbage address", message: message, signature: signature, address: "not-an-address", want: false},
		{name: "address without prefix", message: message, signature: signature, address: signer.address[2:], want: false},
		{name: "empty address", message: message, signature: signature, address: "", want: false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got := v.Verify(test.message, test.signature, test.address)

			// Assert
			if got != test.want {
				t.Errorf("Verify() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestRecoverAddressShouldReturnSigner(t *testing.T) {
	signer := newTestSigner(t)
	message := "hello"

	got, err := RecoverAddress(message, signer.sign(t, message))
	if err != nil {
		t.Fatalf("RecoverAddress() error = %v", err)
	}
	if got.Hex() != signer.address {
		t.Errorf("RecoverAddress() = %s, want %s", got.Hex(), signer.address)
	}
}

func TestPersonalMessageHashShouldMatchEIP191(t *testing.T) {
	// keccak256("\x19Ethereum Signed Message:\n5hello")
	want := "0x50b2c43fd39106bafbba0da34fc430e1f91e3c96ea2acee2bc34119f92b37750"

	got := hexutil.Encode(PersonalMessageHash("hello"))
	if got != want {
		t.Errorf("PersonalMessageHash() = %s, want %s", got, want)
	}
}

// Requirement: the keccak hash agrees with go-ethereum's own personal_sign hash,
// including multi-byte and templated messages.
func TestPersonalMessageHashShouldMatchAccountsTextHash(t *testing.T) {
	v := NewVerifier(Config{})
	for _, message := range []string{"", "hello", "héllo wörld", v.BuildSignableMessage("2026-10-17T10:00:00Z:abc")} {
		got := hexutil.Encode(PersonalMessageHash(message))
		want := hexutil.Encode(accounts.TextHash([]byte(message)))
		if got != want {
			t.Errorf("PersonalMessageHash(%q) = %s, want %s", message, got, want)
		}
	}
}
