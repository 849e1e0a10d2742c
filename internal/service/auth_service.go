package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"
	"github.com/asadsehto/CareToShare/internal/repository/redis"

	"gorm.io/gorm"
)

var usernameCleanRe = regexp.MustCompile(`[^a-z0-9_]`)

// AuthUserStore 认证流程需要的用户存取
type AuthUserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error)
	Save(ctx context.Context, user *model.User) error
}

// UserInfoFetcher 拿 Google access token 换用户身份
type UserInfoFetcher func(ctx context.Context, accessToken string) (*pkg.GoogleUserInfo, error)

type AuthService struct {
	users    AuthUserStore
	sessions *redis.SessionRepository
	fetch    UserInfoFetcher
}

func NewAuthService() *AuthService {
	return &AuthService{
		users:    mysql.NewUserRepository(),
		sessions: &redis.SessionRepository{},
		fetch:    pkg.FetchGoogleUserInfo,
	}
}

type LoginResult struct {
	User      *model.User `json:"user"`
	Tokens    *pkg.Pair   `json:"tokens"`
	IsNewUser bool        `json:"isNewUser"`
}

// LoginWithGoogle 移动端拿到 Google access token 后换本站会话。
// 首次登录自动建号并派生用户名。
func (s *AuthService) LoginWithGoogle(ctx context.Context, googleAccessToken, googleRefreshToken string) (*LoginResult, error) {
	if googleAccessToken == "" {
		return nil, apperr.Invalid("accessToken", "Google access token is required")
	}

	info, err := s.fetch(ctx, googleAccessToken)
	if err != nil {
		return nil, apperr.Upstream("Failed to verify Google token", err)
	}

	user, err := s.users.FindByGoogleID(ctx, info.Sub)
	isNew := false
	switch {
	case err == nil:
		// 老用户：刷新资料和委托 token
		user.Email = info.Email
		if info.Name != "" {
			user.Name = info.Name
		}
		if info.Picture != "" {
			user.Avatar = info.Picture
		}
		user.GoogleAccessToken = googleAccessToken
		if googleRefreshToken != "" {
			user.GoogleRefreshToken = googleRefreshToken
		}
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		isNew = true
		username, err := s.deriveUsername(ctx, info.Email, info.Name)
		if err != nil {
			return nil, err
		}
		user = &model.User{
			GoogleID:           info.Sub,
			Email:              info.Email,
			Name:               info.Name,
			Username:           username,
			Avatar:             info.Picture,
			GoogleAccessToken:  googleAccessToken,
			GoogleRefreshToken: googleRefreshToken,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	tokens, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.AddUserToken(user.ID, tokens.AccessToken); err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: tokens, IsNewUser: isNew}, nil
}

// Refresh 用 refresh token 换新的 token 对，旧会话同步替换
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err := s.sessions.AddUserToken(claims.UserID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout 删会话，access token 立即失效
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.DeleteUserToken(userID)
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}
	return user, nil
}

// deriveUsername 取邮箱前缀清洗成合法用户名，冲突时加数字后缀
func (s *AuthService) deriveUsername(ctx context.Context, email, name string) (string, error) {
	base := email
	if at := strings.IndexByte(base, '@'); at > 0 {
		base = base[:at]
	}
	base = usernameCleanRe.ReplaceAllString(strings.ToLower(base), "")
	if base == "" {
		base = usernameCleanRe.ReplaceAllString(strings.ToLower(name), "")
	}
	if base == "" {
		base = "user"
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 0; i < 100; i++ {
		taken, err := s.users.UsernameTaken(ctx, candidate, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i+1)
	}
	return "", apperr.Conflict("Could not allocate a unique username")
}
