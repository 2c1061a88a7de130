package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/model"
	"docqa/internal/pkg/jwtutil"
)

type memUsers struct {
	rows []model.User
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	user.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *user)
	return nil
}

func (m *memUsers) find(match func(model.User) bool) *model.User {
	for _, u := range m.rows {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == username }), nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email }), nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id }), nil
}

func newAuth() *AuthService {
	return NewAuthService(&memUsers{}, "secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuth()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: " Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.NotEqual(t, "correct horse", reg.User.PasswordHash)

	claims, err := jwtutil.ParseToken("secret", reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	login, err := svc.Login(ctx, LoginInput{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	me, err := svc.GetUserByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Username)
}

func TestRegister_Conflicts(t *testing.T) {
	svc := newAuth()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "ada", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "ADA@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Register(ctx, RegisterInput{Username: "eve", Email: "eve@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin_Failures(t *testing.T) {
	svc := newAuth()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "ada", Password: "password2"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
