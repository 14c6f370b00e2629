package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*AdminAccount, error)
	Create(ctx context.Context, a *AdminAccount) error
}

type EntityUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*EntityUserAccount, error)
}

type Service struct {
	admins      AdminRepository
	entityUsers EntityUserRepository
	issuer      *Issuer
	logger      *slog.Logger
	cost        int
}

func NewService(admins AdminRepository, entityUsers EntityUserRepository, issuer *Issuer, logger *slog.Logger) *Service {
	return &Service{
		admins:      admins,
		entityUsers: entityUsers,
		issuer:      issuer,
		logger:      logger,
		cost:        bcrypt.DefaultCost,
	}
}

func (s *Service) Issuer() *Issuer { return s.issuer }

type LoginResult struct {
	Token   string
	Account Account
}

// credentialSource is one table probed during login.
type credentialSource struct {
	role Role
	find func(ctx context.Context, email string) (Account, error)
}

// sources lists the credential tables in precedence order: an admin match
// wins over an entity-user match for the same email.
func (s *Service) sources() []credentialSource {
	return []credentialSource{
		{role: RoleAdmin, find: func(ctx context.Context, email string) (Account, error) {
			a, err := s.admins.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return a, nil
		}},
		{role: RoleEntity, find: func(ctx context.Context, email string) (Account, error) {
			u, err := s.entityUsers.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			return u, nil
		}},
	}
}

// Authenticate verifies email/password against the admin table and then the
// entity-user table and returns a signed token for the first verified match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	acc, err := s.resolveAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := s.issuer.Issue(acc.Profile())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, Account: acc}, nil
}

// resolveAccount walks the credential sources in order. A lookup fault is
// logged and the next source is still tried; it only surfaces (as
// ErrStoreUnavailable) when nothing else matched.
func (s *Service) resolveAccount(ctx context.Context, email, password string) (Account, error) {
	var faults []error
	for _, src := range s.sources() {
		acc, err := src.find(ctx, email)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				continue
			}
			s.logger.ErrorContext(ctx, "credential lookup failed", "role", src.role, "err", err)
			faults = append(faults, fmt.Errorf("%s lookup: %w", src.role, err))
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acc.passwordHash()), []byte(password)); err != nil {
			s.logger.DebugContext(ctx, "password mismatch", "role", src.role)
			continue
		}
		s.logger.InfoContext(ctx, "login succeeded", "role", src.role, "account_id", acc.Profile().ID)
		return acc, nil
	}
	if len(faults) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(faults...))
	}
	return nil, ErrInvalidCredentials
}

type RegisterAdminInput struct {
	Name        string `json:"nome" yaml:"name"`
	Email       string `json:"email" yaml:"email"`
	Phone       string `json:"celular" yaml:"phone"`
	Password    string `json:"senha" yaml:"password"`
	AccessLevel string `json:"tipo_acesso" yaml:"access_level"`
}

func (in *RegisterAdminInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AccessLevel = strings.TrimSpace(in.AccessLevel)
	if in.AccessLevel == "" {
		in.AccessLevel = string(RoleAdmin)
	}
}

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
)

func (in RegisterAdminInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: nome is required", ErrValidation)
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	return ValidatePassword(in.Password)
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func ValidatePassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("%w: password is required", ErrValidation)
	case len(password) < minPasswordLen:
		return fmt.Errorf("%w: password is too short", ErrValidation)
	case len(password) > maxPasswordLen:
		return fmt.Errorf("%w: password is too long", ErrValidation)
	}
	return nil
}

// HashPassword returns the bcrypt hash of password at the service cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RegisterAdmin validates in, hashes the password and stores a new admin.
// Uniqueness is left to the store's constraint on email.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*AdminAccount, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &AdminAccount{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		AccessLevel:  in.AccessLevel,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin registered", "account_id", a.ID)
	return a, nil
}
