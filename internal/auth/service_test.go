package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shelfwise/library-backend/internal/users"
	pkgAuth "github.com/shelfwise/library-backend/pkg/auth"
	"github.com/shelfwise/library-backend/pkg/config"
	"github.com/shelfwise/library-backend/pkg/db/models"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/security"
	"gorm.io/gorm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "library-backend",
		ExpirationMinutes: 30,
	}
}

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
}

func TestServiceSignupCreatesMemberAndSession(t *testing.T) {
	repo := &stubUserRepo{}
	sessions := &stubSessionManager{}
	svc := buildTestService(t, repo, sessions)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Name:     " Ada Obi ",
		Email:    "Ada@Example.com",
		Password: "reading-is-fun",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.User.Role != enums.UserRoleMember {
		t.Fatalf("expected member role, got %s", resp.User.Role)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Name != "Ada Obi" {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("token subject mismatch")
	}
	if _, ok := sessions.started[claims.ID]; !ok {
		t.Fatalf("expected session for jti %s", claims.ID)
	}
}

func TestServiceSignupRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "ada@example.com", Role: enums.UserRoleMember}
	svc := buildTestService(t, &stubUserRepo{user: existing}, &stubSessionManager{})

	_, err := svc.Signup(context.Background(), SignupRequest{Name: "Ada", Email: "ADA@example.com", Password: "long-enough"})
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = svc.Signup(context.Background(), SignupRequest{Name: "Bola", Email: "bola@example.com", Password: "123"})
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceLogin(t *testing.T) {
	hash, err := testHasher().Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{ID: uuid.New(), Name: "Librarian", Email: "staff@example.com", PasswordHash: hash, Role: enums.UserRoleAdmin}
	sessions := &stubSessionManager{}
	svc := buildTestService(t, &stubUserRepo{user: user}, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Staff@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin claim, got %s", claims.Role)
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if resp.ExpiresAt.Sub(*user.LastLoginAt) != 30*time.Minute {
		t.Fatalf("unexpected expiry %s", resp.ExpiresAt)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "staff@example.com", Password: "wrong"})
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginUpgradesOutdatedHash(t *testing.T) {
	weak := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 4096, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	hash, err := weak.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubUserRepo{user: &models.User{ID: uuid.New(), Email: "staff@example.com", PasswordHash: hash, Role: enums.UserRoleMember}}
	svc := buildTestService(t, repo, &stubSessionManager{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), LoginRequest{Email: "staff@example.com", Password: "correct horse"}); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if repo.rehashed != 1 {
		t.Fatalf("expected exactly one rehash, got %d", repo.rehashed)
	}
	if testHasher().NeedsRehash(repo.user.PasswordHash) {
		t.Fatalf("stored hash should use current parameters")
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc := buildTestService(t, &stubUserRepo{}, &stubSessionManager{})
	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{started: map[string]uuid.UUID{"jti-1": uuid.New()}}
	svc := buildTestService(t, &stubUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.started["jti-1"]; ok {
		t.Fatalf("expected session to be revoked")
	}

	sessions.err = errors.New("redis down")
	if code := pkgerrors.CodeOf(svc.Logout(context.Background(), "jti-2")); code != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %s", code)
	}
	if code := pkgerrors.CodeOf(svc.Logout(context.Background(), "")); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for empty jti, got %s", code)
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Hasher:         testHasher(),
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubUserRepo struct {
	user     *models.User
	err      error
	rehashed int
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.user = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if s.user != nil && s.user.ID == id {
		s.user.PasswordHash = hash
		s.rehashed++
	}
	return nil
}

type stubSessionManager struct {
	started map[string]uuid.UUID
	err     error
}

func (s *stubSessionManager) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if s.started == nil {
		s.started = map[string]uuid.UUID{}
	}
	s.started[accessID] = userID
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.started, accessID)
	return nil
}
