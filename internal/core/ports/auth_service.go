package ports

import (
	"context"

	"github.com/taskvault/taskvault/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// TokenVerifier resolves a bearer token to the subject it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenIssuer signs a token for a subject.
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}
