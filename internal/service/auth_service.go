package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/repository"
	"github.com/ousidus/ticket-machine/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users         repository.UserRepository
	roles         repository.RoleRepository
	sessionSecret string
	log           zerolog.Logger
}

func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, sessionSecret string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		roles:         roles,
		sessionSecret: sessionSecret,
		log:           log.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account. Self-registration always provisions the
// least-privileged role; promotion is an admin operation.
func (a *AuthService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" || len(password) < 6 {
		return nil, errors.New("invalid input")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err := a.users.Create(ctx, email, name, hash)
	if err != nil {
		return nil, err
	}
	if err := a.roles.Set(ctx, u.ID, models.RoleUser); err != nil {
		// The account exists; a missing role row degrades to "user" at
		// resolution time anyway.
		a.log.Error().Err(err).Str("user", u.ID).Msg("role provisioning failed")
	}
	return u, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, hash, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}
	if u == nil || !u.Active {
		return "", nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(hash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, 24*time.Hour)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}
