package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ousidus/ticket-machine/internal/models"
	"github.com/ousidus/ticket-machine/internal/utils"
)

type authUserRepo struct {
	created []models.User
	byEmail map[string]struct {
		user models.User
		hash string
	}
}

func (r *authUserRepo) Create(ctx context.Context, email, name, hash string) (*models.User, error) {
	u := models.User{ID: "u-new", Email: email, Name: name, Active: true}
	r.created = append(r.created, u)
	return &u, nil
}

func (r *authUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	rec, ok := r.byEmail[email]
	if !ok {
		return nil, "", nil
	}
	u := rec.user
	return &u, rec.hash, nil
}

func (r *authUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	panic("not used")
}

func (r *authUserRepo) List(ctx context.Context) ([]models.User, error) { panic("not used") }

func TestRegisterProvisionsUserRole(t *testing.T) {
	users := &authUserRepo{}
	roles := &fakeRoleRepo{}
	svc := NewAuthService(users, roles, "secret", zerolog.Nop())

	u, err := svc.Register(context.Background(), "  Dana@Example.COM ", "Dana", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", u.Email)
	assert.Equal(t, models.RoleUser, roles.roles[u.ID])
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(&authUserRepo{}, &fakeRoleRepo{}, "secret", zerolog.Nop())

	_, err := svc.Register(context.Background(), "a@b.com", "A", "12345")
	assert.Error(t, err)
}

func TestLoginUnknownEmailIsInvalidCredentials(t *testing.T) {
	svc := NewAuthService(&authUserRepo{}, &fakeRoleRepo{}, "secret", zerolog.Nop())

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)

	users := &authUserRepo{byEmail: map[string]struct {
		user models.User
		hash string
	}{
		"dana@example.com": {user: models.User{ID: "u1", Email: "dana@example.com", Active: true}, hash: hash},
	}}
	svc := NewAuthService(users, &fakeRoleRepo{}, "secret", zerolog.Nop())

	tok, u, err := svc.Login(context.Background(), "Dana@Example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	claims, err := utils.ParseJWT("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)

	users := &authUserRepo{byEmail: map[string]struct {
		user models.User
		hash string
	}{
		"dana@example.com": {user: models.User{ID: "u1", Email: "dana@example.com", Active: true}, hash: hash},
	}}
	svc := NewAuthService(users, &fakeRoleRepo{}, "secret", zerolog.Nop())

	_, _, err = svc.Login(context.Background(), "dana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)

	users := &authUserRepo{byEmail: map[string]struct {
		user models.User
		hash string
	}{
		"dana@example.com": {user: models.User{ID: "u1", Email: "dana@example.com", Active: false}, hash: hash},
	}}
	svc := NewAuthService(users, &fakeRoleRepo{}, "secret", zerolog.Nop())

	_, _, err = svc.Login(context.Background(), "dana@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
