package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/pkg/crypto"
	"github.com/lborres/walletbind/pkg/metrics"
	"github.com/lborres/walletbind/pkg/wallet"
)

// WalletAuthService runs the wallet flows end to end: it validates input,
// verifies the signature, applies the binding rules and hands out
// credentials.
type WalletAuthService struct {
	store       core.IdentityStore
	verifier    *wallet.Verifier
	binder      *AccountBinder
	connections *WalletConnectionManager
	issuer      *TokenIssuer
	sessions    *SessionManager
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Ensure WalletAuthService implements AuthHandler
var _ core.AuthHandler = (*WalletAuthService)(nil)

type WalletAuthConfig struct {
	Store    core.IdentityStore
	Sessions *SessionManager
	Verifier *wallet.Verifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // optional
}

func NewWalletAuthService(cfg WalletAuthConfig) *WalletAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = wallet.NewVerifier(wallet.Config{})
	}

	return &WalletAuthService{
		store:       cfg.Store,
		verifier:    verifier,
		binder:      NewAccountBinder(cfg.Store, logger),
		connections: NewWalletConnectionManager(cfg.Store, logger),
		issuer:      NewTokenIssuer(cfg.Store),
		sessions:    cfg.Sessions,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// Authenticate signs up or logs in by email and wallet signature and returns
// a transfer token on success.
func (s *WalletAuthService) Authenticate(ctx context.Context, input core.AuthenticateInput) (*core.AuthenticateResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	address, err := s.verify(ctx, input.Address, input.Signature, input.Message, input.Nonce)
	if err != nil {
		return nil, err
	}

	outcome, err := s.binder.Bind(ctx, email, address)
	s.metrics.ObserveBinding("authenticate", outcomeLabel(outcome, err))
	if err != nil {
		s.logRejection(ctx, "authenticate", address, err)
		return nil, err
	}

	token, err := s.issuer.Issue(ctx, outcome.IdentityID)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue transfer token failed",
			slog.String("identity_id", outcome.IdentityID),
			slog.Any("error", err),
		)
		return nil, err
	}

	return &core.AuthenticateResult{
		IdentityID: outcome.IdentityID,
		Secret:     token.Secret,
		Outcome:    outcome.Kind.String(),
	}, nil
}

// ExchangeToken redeems a transfer token for a session. Each token works
// once.
func (s *WalletAuthService) ExchangeToken(ctx context.Context, input core.ExchangeInput, ipAddress, userAgent string) (*core.CreateSessionResult, error) {
	identityID := strings.TrimSpace(input.IdentityID)
	secret := strings.TrimSpace(input.Secret)
	if identityID == "" || secret == "" {
		return nil, core.ErrInvalidToken
	}

	if err := s.store.ConsumeTransferToken(ctx, identityID, crypto.HashToken(secret)); err != nil {
		return nil, storeError("consume transfer token", err)
	}

	result, err := s.sessions.Create(ctx, identityID, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSession("created", 1)

	return result, nil
}

func (s *WalletAuthService) GetSession(ctx context.Context, token string) (*core.SessionData, error) {
	session, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.GetIdentityByID(ctx, session.IdentityID)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeError("get identity", err)
	}

	return &core.SessionData{Identity: identity, Session: session}, nil
}

func (s *WalletAuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// SignOutEverywhere revokes every session of the caller's identity,
// including the one making the request.
func (s *WalletAuthService) SignOutEverywhere(ctx context.Context, identity *core.Identity) (*core.SignOutEverywhereResult, error) {
	if identity == nil {
		return nil, core.ErrNotAuthenticated
	}

	count, err := s.sessions.DestroyIdentitySessions(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSession("revoked", count)
	s.logger.InfoContext(ctx, "identity signed out everywhere",
		slog.String("identity_id", identity.ID),
		slog.Int("sessions", count),
	)

	return &core.SignOutEverywhereResult{Revoked: count}, nil
}

// ConnectWallet links a verified wallet to the caller's identity.
func (s *WalletAuthService) ConnectWallet(ctx context.Context, identity *core.Identity, input core.ConnectWalletInput) (*core.ConnectWalletResult, error) {
	if identity == nil {
		return nil, core.ErrNotAuthenticated
	}

	address, err := s.verify(ctx, input.Address, input.Signature, input.Message, input.Nonce)
	if err != nil {
		return nil, err
	}

	outcome, err := s.connections.Connect(ctx, identity.ID, address)
	s.metrics.ObserveBinding("connect", outcomeLabel(outcome, err))
	if err != nil {
		s.logRejection(ctx, "connect", address, err)
		return nil, err
	}

	return &core.ConnectWalletResult{
		IdentityID:   outcome.IdentityID,
		AlreadyBound: outcome.AlreadyBound(),
	}, nil
}

func (s *WalletAuthService) DisconnectWallet(ctx context.Context, identity *core.Identity) (*core.DisconnectWalletResult, error) {
	if identity == nil {
		return nil, core.ErrNotAuthenticated
	}

	hadWallet, err := s.connections.Disconnect(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if hadWallet {
		s.metrics.ObserveBinding("disconnect", "unbound")
	}

	return &core.DisconnectWalletResult{HadWallet: hadWallet}, nil
}

// SignableMessage returns the exact text a wallet must sign for nonce.
func (s *WalletAuthService) SignableMessage(nonce string) (string, error) {
	if err := wallet.ValidateNonce(nonce); err != nil {
		return "", err
	}
	return s.verifier.BuildSignableMessage(nonce), nil
}

// SweepExpiredSessions removes expired sessions from storage.
func (s *WalletAuthService) SweepExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveSession("swept", count)
	return count, nil
}

// verify validates the claim fields and checks the signature. It returns the
// canonical wallet address.
func (s *WalletAuthService) verify(ctx context.Context, address, signature, message, nonce string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", core.ErrAddressRequired
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return "", core.ErrSignatureRequired
	}

	signed, err := s.verifier.ResolveMessage(message, nonce)
	if err != nil {
		return "", err
	}

	ok := s.verifier.Verify(signed, signature, address)
	s.metrics.ObserveVerification(ok)
	if !ok {
		s.logger.WarnContext(ctx, "wallet signature rejected", slog.String("wallet", wallet.Short(address)))
		return "", core.ErrSignatureInvalid
	}

	return wallet.Canonicalize(address), nil
}

func (s *WalletAuthService) logRejection(ctx context.Context, operation, address string, err error) {
	level := slog.LevelWarn
	if !errors.Is(err, core.ErrBindingRejected) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "wallet binding failed",
		slog.String("operation", operation),
		slog.String("wallet", wallet.Short(address)),
		slog.Any("error", err),
	)
}

// normalizeEmail trims and lowercases email and rejects anything that is not
// a bare address.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", core.ErrEmailRequired
	}

	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", core.ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}
