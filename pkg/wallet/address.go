package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether address is a 0x-prefixed 20-byte hex
// address. Mixed-case input must carry a valid EIP-55 checksum; all-lower and
// all-upper input is accepted unchecked.
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return false
	}

	body := address[2:]
	if strings.ToLower(body) == body || strings.ToUpper(body) == body {
		return true
	}
	return common.HexToAddress(address).Hex() == address
}

// Canonicalize returns the comparison-stable lowercase form of address.
//
// Input that is not a valid address falls back to trim+lowercase instead of
// failing, so a canonical value proves nothing about wallet control. Only
// Verifier.Verify does that. Canonicalize is idempotent.
func Canonicalize(address string) string {
	trimmed := strings.TrimSpace(address)
	if IsValidAddress(trimmed) {
		return strings.ToLower(common.HexToAddress(trimmed).Hex())
	}
	return strings.ToLower(trimmed)
}

// Short renders an address for logs: 0x1234…abcd.
func Short(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
