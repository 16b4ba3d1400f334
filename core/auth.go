package core

// AuthenticateInput is the unauthenticated signup/login request. Either
// Message (the exact signed text) or Nonce (from which the message is
// rebuilt) must be provided.
type AuthenticateInput struct {
	Email     string `json:"email"`
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
	Nonce     string `json:"nonce"`
}

// AuthenticateResult carries the transfer credential the client exchanges
// for a session.
type AuthenticateResult struct {
	IdentityID string `json:"identityId"`
	Secret     string `json:"secret"`
	Outcome    string `json:"outcome"`
}

// ConnectWalletInput links a wallet to the caller's own identity.
type ConnectWalletInput struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
	Nonce     string `json:"nonce"`
}

type ConnectWalletResult struct {
	IdentityID   string `json:"identityId"`
	AlreadyBound bool   `json:"alreadyBound"`
}

type SignOutEverywhereResult struct {
	Revoked int `json:"revoked"`
}

type DisconnectWalletResult struct {
	HadWallet bool `json:"hadWallet"`
}

// ExchangeInput redeems a transfer token for a session.
type ExchangeInput struct {
	IdentityID string `json:"identityId"`
	Secret     string `json:"secret"`
}
