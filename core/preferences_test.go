package core

import (
	"encoding/json"
	"errors"
	"testing"
)

// Requirement: decoding maps the two recognized keys to typed fields and keeps the rest.
func TestPreferencesUnmarshalShouldSplitKnownKeys(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantWallet  string
		wantPasskey bool
		wantExtra   []string
	}{
		{
			name:       "wallet and extra key",
			raw:        `{"walletAddress":"0xabc","theme":"dark"}`,
			wantWallet: "0xabc",
			wantExtra:  []string{"theme"},
		},
		{
			name:        "passkey only",
			raw:         `{"hasPasskey":true}`,
			wantPasskey: true,
		},
		{
			name: "null wallet means unbound",
			raw:  `{"walletAddress":null}`,
		},
		{
			name: "empty wallet means unbound",
			raw:  `{"walletAddress":""}`,
		},
		{
			name: "non-boolean passkey is ignored",
			raw:  `{"hasPasskey":"yes"}`,
		},
		{
			name: "null bag",
			raw:  `null`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			var p Preferences
			if err := json.Unmarshal([]byte(test.raw), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			// Assert
			if p.Wallet() != test.wantWallet {
				t.Errorf("Wallet() = %q, want %q", p.Wallet(), test.wantWallet)
			}
			if p.HasWallet() != (test.wantWallet != "") {
				t.Errorf("HasWallet() = %v", p.HasWallet())
			}
			if p.HasPasskey != test.wantPasskey {
				t.Errorf("HasPasskey = %v, want %v", p.HasPasskey, test.wantPasskey)
			}
			if len(p.Extra) != len(test.wantExtra) {
				t.Fatalf("Extra has %d keys, want %d", len(p.Extra), len(test.wantExtra))
			}
			for _, k := range test.wantExtra {
				if _, ok := p.Extra[k]; !ok {
					t.Errorf("Extra missing key %q", k)
				}
			}
		})
	}
}

func TestPreferencesUpdateShouldNotClobberUnrelatedKeys(t *testing.T) {
	var p Preferences
	if err := json.Unmarshal([]byte(`{"theme":"dark","hasPasskey":true,"lang":"en"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(p.WithWallet("0xdef"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m["theme"] != "dark" || m["lang"] != "en" {
		t.Errorf("unrelated keys changed: %v", m)
	}
	if m[PrefWalletAddress] != "0xdef" {
		t.Errorf("walletAddress = %v, want 0xdef", m[PrefWalletAddress])
	}
	if m[PrefHasPasskey] != true {
		t.Errorf("hasPasskey = %v, want true", m[PrefHasPasskey])
	}
}

func TestPreferencesWithoutWalletShouldDropKey(t *testing.T) {
	p := Preferences{}.WithWallet("0xabc")

	out, err := json.Marshal(p.WithoutWallet())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "{}" {
		t.Errorf("Marshal() = %s, want {}", out)
	}
	if !p.HasWallet() {
		t.Error("WithoutWallet() must not mutate the receiver")
	}
}

func TestStateOfShouldPreferWalletOverPasskey(t *testing.T) {
	tests := []struct {
		name  string
		prefs Preferences
		want  IdentityState
	}{
		{name: "fresh identity", prefs: Preferences{}, want: StateNoPasskeyNoWallet},
		{name: "passkey only", prefs: Preferences{HasPasskey: true}, want: StatePasskeyNoWallet},
		{name: "wallet only", prefs: Preferences{}.WithWallet("0xabc"), want: StateHasWallet},
		{name: "wallet and passkey", prefs: Preferences{HasPasskey: true}.WithWallet("0xabc"), want: StateHasWallet},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got := StateOf(&Identity{Preferences: test.prefs})
			if got != test.want {
				t.Errorf("StateOf() = %s, want %s", got, test.want)
			}
		})
	}
}

func TestTaxonomyErrorsShouldMatchTheirParent(t *testing.T) {
	tests := []struct {
		err    error
		parent error
	}{
		{ErrEmailRequired, ErrInvalidInput},
		{ErrInvalidMessage, ErrInvalidInput},
		{ErrPasskeyProtected, ErrBindingRejected},
		{ErrAccountExists, ErrBindingRejected},
		{ErrWalletConflict, ErrBindingRejected},
		{ErrSessionExpired, ErrNotAuthenticated},
		{ErrDuplicateEmail, ErrMisconfigured},
	}

	for _, test := range tests {
		if !errors.Is(test.err, test.parent) {
			t.Errorf("errors.Is(%v, %v) = false", test.err, test.parent)
		}
	}

	if errors.Is(ErrWalletConflict, ErrInvalidInput) {
		t.Error("rejection must not match ErrInvalidInput")
	}
}
