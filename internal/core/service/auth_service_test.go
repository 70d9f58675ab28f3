package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskvault/taskvault/internal/core/domain"
	"github.com/taskvault/taskvault/internal/core/validation"
	"github.com/taskvault/taskvault/internal/pkg/password"
	"github.com/taskvault/taskvault/internal/pkg/token"
)

type stubAuthRepo struct {
	users     map[string]*domain.User
	nextID    int
	createErr error
	findErr   error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = "user-" + strconv.Itoa(r.nextID)
	r.users[copy.Username] = copy
	return cloneUser(copy), nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func newAuthService(repo *stubAuthRepo) (*AuthService, *token.Service) {
	tokens := token.NewService("secret", time.Hour)
	return NewAuthService(repo, tokens, validation.New(), zerolog.Nop()), tokens
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	user, err := svc.Register(context.Background(), "alice1", "secretpw")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil || user.ID == "" {
		t.Fatalf("expected user with id, got %+v", user)
	}
	stored := repo.users["alice1"]
	if stored.PasswordHash == "secretpw" || strings.Contains(stored.PasswordHash, "secretpw") {
		t.Fatalf("expected password to be hashed")
	}
	if !password.Verify("secretpw", stored.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
}

func TestAuthService_Register_TrimsUsername(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	if _, err := svc.Register(context.Background(), "  alice1  ", "secretpw"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, ok := repo.users["alice1"]; !ok {
		t.Fatalf("expected trimmed username to be stored")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	_, err := svc.Register(context.Background(), "bob", "short")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Problems) != 2 {
		t.Fatalf("expected both problems reported, got %v", ve.Problems)
	}
	if len(repo.users) != 0 {
		t.Fatalf("nothing should be stored on validation failure")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	if _, err := svc.Register(context.Background(), "bobby", "password1"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bobby", "password2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected user count to stay 1, got %d", len(repo.users))
	}
}

func TestAuthService_Register_StorageError(t *testing.T) {
	repo := newStubAuthRepo()
	repo.createErr = domain.NewStorageError("insert user", errors.New("no reachable servers"))
	svc, _ := newAuthService(repo)

	if _, err := svc.Register(context.Background(), "carol", "password1"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	repo := newStubAuthRepo()
	svc, tokens := newAuthService(repo)

	created, err := svc.Register(context.Background(), "carol", "s3cretpw")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tok, user, err := svc.Login(context.Background(), "carol", "s3cretpw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.Username != "carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	subject, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if subject != created.ID {
		t.Fatalf("expected subject %q, got %q", created.ID, subject)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	_, _ = svc.Register(context.Background(), "daveo", "goodpass")
	if _, _, err := svc.Login(context.Background(), "daveo", "badpass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserLooksLikeBadPassword(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	if _, _, err := svc.Login(context.Background(), "ghost", "password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyCredentials(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newAuthService(repo)

	if _, _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StorageError(t *testing.T) {
	repo := newStubAuthRepo()
	repo.findErr = domain.NewStorageError("find user", context.DeadlineExceeded)
	svc, _ := newAuthService(repo)

	if _, _, err := svc.Login(context.Background(), "alice1", "secretpw"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
