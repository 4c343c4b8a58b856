package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/shelfwise/library-backend/internal/users"
	"github.com/shelfwise/library-backend/pkg/config"
	"github.com/shelfwise/library-backend/pkg/db"
	"github.com/shelfwise/library-backend/pkg/enums"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/security"
	"gorm.io/gorm"
)

// ProvisionRequest creates an account with an explicit role. It is only
// reachable from the operator CLI.
type ProvisionRequest struct {
	Name     string
	Email    string
	Password string
	Role     enums.UserRole
}

// ProvisionService creates staff accounts outside the public signup flow.
type ProvisionService interface {
	Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error)
}

// ProvisionServiceParams names the dependencies for the provisioning flow.
type ProvisionServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type provisionService struct {
	db     *db.Client
	hasher *security.Hasher
}

// NewProvisionService builds the operator account provisioning service.
func NewProvisionService(params ProvisionServiceParams) (ProvisionService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &provisionService{
		db:     params.DB,
		hasher: security.NewHasher(params.PasswordConfig),
	}, nil
}

func (s *provisionService) Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleAdmin
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
