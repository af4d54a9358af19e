package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/streck/internal/models"
)

// UserStorage defines the user persistence the authenticator needs.
type UserStorage interface {
	SoftCreateGroupAndUser(ctx context.Context, externalGroupID, externalUserID string) (*models.User, error)
}

// Session is a signed token together with the user it was issued for.
type Session struct {
	User  *models.User
	Token string
}

// Authenticator turns identities verified by the external identity provider
// into sessions. The group and user are created on first sight.
type Authenticator struct {
	storage UserStorage
	tokens  *JWTManager
}

// NewAuthenticator creates an authenticator issuing tokens with tokens.
func NewAuthenticator(storage UserStorage, tokens *JWTManager) *Authenticator {
	return &Authenticator{
		storage: storage,
		tokens:  tokens,
	}
}

// IssueSession soft-creates the group and user and signs a token carrying
// their internal ids.
func (a *Authenticator) IssueSession(ctx context.Context, externalGroupID, externalUserID string) (*Session, error) {
	user, err := a.storage.SoftCreateGroupAndUser(ctx, externalGroupID, externalUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	slog.Info("Session issued", "user_id", user.ID, "group_id", user.GroupID)
	return &Session{User: user, Token: token}, nil
}
