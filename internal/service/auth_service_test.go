package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuthService(t *testing.T, admins ...string) *AuthService {
	db := testutil.NewDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.ExpireTime = time.Hour
	cfg.Admin.Emails = admins
	cfg.Auth.GoogleClientID = "client-id"
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "ada", res.User.DisplayName)
	assert.Equal(t, model.Student, res.User.Role)

	claims, err := util.ParseJWT(res.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = svc.Register(ctx, RegisterRequest{Email: "ada@example.com", Password: "other12"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
}

func TestRegister_AdminWhitelist(t *testing.T) {
	svc := newAuthService(t, "Boss@Example.com")

	res, err := svc.Register(context.Background(), RegisterRequest{Email: "boss@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.Admin, res.User.Role)
}

func TestLogin_PromotesAfterConfigReload(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "lead@example.com", Password: "secret1"})
	require.NoError(t, err)

	cfg := *svc.Cfg
	cfg.Admin.Emails = []string{"lead@example.com"}
	svc.UpdateConfig(&cfg)

	res, err := svc.Login(ctx, "lead@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.Admin, res.User.Role)

	stored, err := svc.UserRepo.FindByEmail(ctx, "lead@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.Admin, stored.Role)
	assert.NotNil(t, stored.LastLogin)
}

func TestGoogleLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	svc.VerifyToken = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "good" || audience != "client-id" {
			return nil, errors.New("invalid token")
		}
		return &idtoken.Payload{Claims: map[string]interface{}{
			"email":          "Grace@Example.com",
			"email_verified": true,
			"name":           "Grace",
			"picture":        "https://img.example.com/g.png",
		}}, nil
	}

	first, err := svc.GoogleLogin(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGoogle, first.User.Provider)
	assert.Equal(t, "Grace", first.User.DisplayName)

	second, err := svc.GoogleLogin(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = svc.GoogleLogin(ctx, "bad")
	assert.ErrorIs(t, err, util.ErrInvalidCredential)

	// Google 账号没有本地密码
	_, err = svc.Login(ctx, "grace@example.com", "")
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
}
