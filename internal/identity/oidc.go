package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/sekreterlik/sekreterlik/internal/auth"
)

var ErrEmptyToken = errors.New("empty id token")

// TokenVerifier turns a raw ID token into the principal it asserts.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*auth.Principal, error)
}

type OIDCConfig struct {
	Issuer     string
	ClientID   string
	HTTPClient *http.Client
}

// OIDCVerifier checks ID tokens issued by the remote identity provider, for
// example https://securetoken.google.com/<project> with the project as audience.
type OIDCVerifier struct {
	verifier   *gooidc.IDTokenVerifier
	httpClient *http.Client
}

var _ TokenVerifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier discovers the issuer's keys once and returns a verifier.
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	return &OIDCVerifier{
		verifier:   op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient: httpClient,
	}, nil
}

// NewOIDCVerifierWithKeys builds a verifier from a fixed key set, skipping discovery.
func NewOIDCVerifierWithKeys(issuer, clientID string, keys gooidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier:   gooidc.NewVerifier(issuer, keys, &gooidc.Config{ClientID: clientID}),
		httpClient: http.DefaultClient,
	}
}

type idTokenClaims struct {
	Email string `json:"email"`
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*auth.Principal, error) {
	if rawIDToken == "" {
		return nil, ErrEmptyToken
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	tok, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	var claims idTokenClaims
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", err)
	}
	return &auth.Principal{UID: tok.Subject, Email: claims.Email}, nil
}
