package services

import (
	"fmt"

	"github.com/lborres/walletbind/core"
)

// BaseEndpoints returns framework-agnostic endpoint definitions
// for the wallet authentication endpoints.
//
// Each endpoint is a template:
// - Path and Method are set
// - Handler is nil (provided by adapters)
// - Metadata describes the operation and whether a session is required
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/wallet/authenticate",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "authenticateWithWallet",
				Description: "Sign up or sign in with an email and a wallet signature",
				RequestBody: core.AuthenticateInput{},
			},
		},
		{
			Path:   "/wallet/message",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "getSignableMessage",
				Description: "Get the exact message a wallet must sign for a nonce",
			},
		},
		{
			Path:   "/wallet/connect",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "connectWallet",
				Description: "Link a wallet to the signed-in identity",
				Protected:   true,
				RequestBody: core.ConnectWalletInput{},
			},
		},
		{
			Path:   "/wallet/disconnect",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "disconnectWallet",
				Description: "Unlink the wallet from the signed-in identity",
				Protected:   true,
			},
		},
		{
			Path:   "/session",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "exchangeTransferToken",
				Description: "Exchange a transfer token for a session",
				RequestBody: core.ExchangeInput{},
			},
		},
		{
			Path:   "/session",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "getSession",
				Description: "Get the current identity's session data",
				Protected:   true,
			},
		},
		{
			Path:   "/sign-out",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "signOut",
				Description: "Sign out and invalidate the session",
				Protected:   true,
			},
		},
		{
			Path:   "/sign-out/all",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "signOutEverywhere",
				Description: "Revoke every session of the signed-in identity",
				Protected:   true,
			},
		},
		{
			Path:   "/health",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "healthCheck",
				Description: "Report service liveness",
			},
		},
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// endpoints stores all registered endpoints keyed by "METHOD:PATH"
	endpoints map[string]*core.Endpoint
	order     []string
}

// NewEndpointRegistry creates a new registry with all base endpoints
// pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		// Base endpoints are unique by construction.
		_ = reg.register(&base[i])
	}

	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// register adds a single endpoint to the registry with conflict detection.
func (r *EndpointRegistry) register(ep *core.Endpoint) error {
	key := endpointKey(ep)

	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}

	r.endpoints[key] = ep
	r.order = append(r.order, key)
	return nil
}

// RegisterPlugin registers additional endpoints. If any of them conflicts
// with a registered endpoint or with another in the same batch, none are
// registered.
func (r *EndpointRegistry) RegisterPlugin(endpoints []core.Endpoint) error {
	seen := make(map[string]bool)
	for i := range endpoints {
		ep := &endpoints[i]
		key := endpointKey(ep)

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("plugin endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("plugin contains duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		_ = r.register(&endpoints[i])
	}

	return nil
}

// Endpoints returns all registered endpoints in registration order.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.endpoints[key])
	}
	return result
}
