package wallet

import (
	"errors"
	"strings"
	"testing"

	"github.com/lborres/walletbind/core"
)

func TestBuildSignableMessageShouldBeDeterministic(t *testing.T) {
	v := NewVerifier(Config{})

	a := v.BuildSignableMessage("abc")
	b := v.BuildSignableMessage("abc")
	if a != b {
		t.Fatalf("BuildSignableMessage() not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, DefaultMessagePrefix) || !strings.HasSuffix(a, "abc") {
		t.Errorf("BuildSignableMessage() = %q", a)
	}

	custom := NewVerifier(Config{MessagePrefix: "Log in to Example: "})
	if got := custom.BuildSignableMessage("n1"); got != "Log in to Example: n1" {
		t.Errorf("custom prefix message = %q", got)
	}
}

// Requirement: ResolveMessage accepts a nonce or a templated message and rejects anything else.
func TestResolveMessage(t *testing.T) {
	v := NewVerifier(Config{})
	built := v.BuildSignableMessage("2026-10-17T10:00:00Z:abc")

	tests := []struct {
		name    string
		message string
		nonce   string
		want    string
		wantErr error
	}{
		{name: "nonce only", nonce: "2026-10-17T10:00:00Z:abc", want: built},
		{name: "message only", message: built, want: built},
		{name: "nonce and matching message", message: built, nonce: "2026-10-17T10:00:00Z:abc", want: built},
		{name: "nonce and different message", message: "something else", nonce: "n", wantErr: core.ErrInvalidMessage},
		{name: "neither", wantErr: core.ErrMessageRequired},
		{name: "message without template", message: "please sign me", wantErr: core.ErrInvalidMessage},
		{name: "template with empty nonce", message: DefaultMessagePrefix, wantErr: core.ErrInvalidMessage},
		{name: "template with multi-line nonce", message: DefaultMessagePrefix + "a\nb", wantErr: core.ErrInvalidMessage},
		{name: "multi-line nonce", nonce: "a\r\nb", wantErr: core.ErrInvalidNonce},
		{name: "oversized nonce", nonce: strings.Repeat("x", MaxNonceLength+1), wantErr: core.ErrInvalidNonce},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got, err := v.ResolveMessage(test.message, test.nonce)

			// Assert
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("ResolveMessage() error = %v, want %v", err, test.wantErr)
				}
				if !errors.Is(err, core.ErrInvalidInput) {
					t.Errorf("ResolveMessage() error %v should be invalid input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveMessage() unexpected error = %v", err)
			}
			if got != test.want {
				t.Errorf("ResolveMessage() = %q, want %q", got, test.want)
			}
		})
	}
}
