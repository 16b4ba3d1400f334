package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	PrefWalletAddress = "walletAddress"
	PrefHasPasskey    = "hasPasskey"
)

// Preferences is the per-identity preference bag kept by the identity store.
//
// Only walletAddress and hasPasskey are interpreted. Every other key is kept
// verbatim in Extra so writing the bag back never clobbers unrelated data.
type Preferences struct {
	WalletAddress *string
	HasPasskey    bool
	Extra         map[string]json.RawMessage
}

// HasWallet reports whether a wallet address is bound.
func (p Preferences) HasWallet() bool {
	return p.WalletAddress != nil && *p.WalletAddress != ""
}

// Wallet returns the bound address, or "" when none is bound.
func (p Preferences) Wallet() string {
	if p.WalletAddress == nil {
		return ""
	}
	return *p.WalletAddress
}

// WithWallet returns a copy with the wallet address set.
func (p Preferences) WithWallet(address string) Preferences {
	out := p.clone()
	out.WalletAddress = &address
	return out
}

// WithoutWallet returns a copy with the wallet address removed.
func (p Preferences) WithoutWallet() Preferences {
	out := p.clone()
	out.WalletAddress = nil
	return out
}

func (p Preferences) clone() Preferences {
	out := Preferences{HasPasskey: p.HasPasskey}
	if p.WalletAddress != nil {
		addr := *p.WalletAddress
		out.WalletAddress = &addr
	}
	if len(p.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (p Preferences) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(p.Extra)+2)
	for k, v := range p.Extra {
		m[k] = v
	}

	if p.WalletAddress != nil {
		raw, err := json.Marshal(*p.WalletAddress)
		if err != nil {
			return nil, err
		}
		m[PrefWalletAddress] = raw
	}
	if p.HasPasskey {
		m[PrefHasPasskey] = json.RawMessage("true")
	}

	return json.Marshal(m)
}

func (p *Preferences) UnmarshalJSON(data []byte) error {
	*p = Preferences{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode preferences: %w", err)
	}

	if raw, ok := m[PrefWalletAddress]; ok {
		delete(m, PrefWalletAddress)
		var addr *string
		if err := json.Unmarshal(raw, &addr); err != nil {
			return fmt.Errorf("failed to decode %s: %w", PrefWalletAddress, err)
		}
		if addr != nil && *addr != "" {
			p.WalletAddress = addr
		}
	}

	if raw, ok := m[PrefHasPasskey]; ok {
		delete(m, PrefHasPasskey)
		// Anything other than a JSON true counts as "no passkey".
		var has bool
		if err := json.Unmarshal(raw, &has); err == nil {
			p.HasPasskey = has
		}
	}

	if len(m) > 0 {
		p.Extra = m
	}
	return nil
}
