package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/usecases"
	"github.com/mgoiri/geolens/internal/pkg/auth"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, errors.New("not found")
}

func testTokens() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", "geolens-test")
}

// --- Tests ---

func TestAuthService_Register(t *testing.T) {
	var created *domain.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}

	svc := usecases.NewAuthService(repo, testTokens())
	user, token, err := svc.Register(context.Background(), "  Ane@Example.COM ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "ane@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if created == nil || created.PasswordHash == "" || created.PasswordHash == "hunter2hunter2" {
		t.Error("password must be stored hashed")
	}
	if token == "" {
		t.Error("expected an access token")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email}, nil
		},
	}

	svc := usecases.NewAuthService(repo, testTokens())
	_, _, err := svc.Register(context.Background(), "ane@example.com", "hunter2hunter2")
	if !errors.Is(err, usecases.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_WeakInputs(t *testing.T) {
	svc := usecases.NewAuthService(&mockUserRepo{}, testTokens())

	if _, _, err := svc.Register(context.Background(), "not-an-email", "hunter2hunter2"); err == nil {
		t.Error("expected error for bad email")
	}
	if _, _, err := svc.Register(context.Background(), "a@b.com", "short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}

	svc := usecases.NewAuthService(repo, testTokens())

	user, token, err := svc.Login(context.Background(), "ane@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" || token == "" {
		t.Errorf("user = %+v, token = %q", user, token)
	}

	_, _, err = svc.Login(context.Background(), "ane@example.com", "wrong")
	if !errors.Is(err, usecases.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := usecases.NewAuthService(&mockUserRepo{}, testTokens())
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	if !errors.Is(err, usecases.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	tokens := testTokens()
	repo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "ane@example.com"}, nil
		},
	}
	svc := usecases.NewAuthService(repo, tokens)

	token, err := tokens.Issue("u1", "ane@example.com")
	if err != nil {
		t.Fatal(err)
	}

	user, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user = %+v", user)
	}

	if _, err := svc.Authenticate(context.Background(), "garbage"); err == nil {
		t.Error("expected error for garbage token")
	}
}
