package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
)

// UserLookup reads users from the identity store by primary key.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Verifier maps an inbound bearer credential to a Principal.
type Verifier struct {
	tokens *TokenManager
	users  UserLookup
}

func NewVerifier(tokens *TokenManager, users UserLookup) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify decodes the token and confirms the principal still exists. The
// role comes from the store, not the token, so demotions apply at once.
func (v *Verifier) Verify(ctx context.Context, token string) (model.Principal, error) {
	userID, err := v.tokens.Parse(token)
	if err != nil {
		return model.Principal{}, err
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Principal{}, ErrInvalidToken
		}
		return model.Principal{}, fmt.Errorf("lookup principal: %w", err)
	}
	return model.Principal{UserID: user.ID, Role: user.Role}, nil
}
