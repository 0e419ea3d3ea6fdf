package identity

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/oakline/storefront/pkg/models"
)

var ErrUnauthenticated = errors.New("not authorized to access this route")

// UserStore is the local side of the bridge: subject lookup plus
// auto-provisioning on first sight.
type UserStore interface {
	GetUserBySubject(ctx context.Context, subject string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

// Bridge verifies identity-provider bearer tokens and resolves them to
// local user records. Credential and session handling live entirely with
// the provider; this service only ever sees signed tokens.
type Bridge struct {
	verifier *oidc.IDTokenVerifier
	users    UserStore
}

// NewBridge discovers the OIDC provider and builds a token verifier for the
// configured client id.
func NewBridge(ctx context.Context, issuer, clientID string, users UserStore) (*Bridge, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC provider init failed: %w", err)
	}
	return &Bridge{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		users:    users,
	}, nil
}

type tokenClaims struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

// Resolve verifies a raw bearer token and returns the local user for its
// subject, creating the record on first sight from the token claims.
func (b *Bridge) Resolve(ctx context.Context, rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, ErrUnauthenticated
	}

	idToken, err := b.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: token verification failed", ErrUnauthenticated)
	}

	var claims tokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("claims parse error: %w", err)
	}

	user, err := b.users.GetUserBySubject(ctx, claims.Sub)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	email := claims.Email
	if email == "" {
		email = fmt.Sprintf("user_%s@placeholder.invalid", claims.Sub)
	}
	name := claims.Name
	if name == "" {
		name = "User"
	}

	user, err = b.users.CreateUser(ctx, &models.User{
		Subject: claims.Sub,
		Email:   email,
		Name:    name,
		Phone:   claims.Phone,
		Role:    models.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Provisioned local user for subject %s", claims.Sub)
	return user, nil
}
