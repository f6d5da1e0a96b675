package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"bloodbank/internal/auth"
	"bloodbank/internal/entity"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthService 处理注册、登录和个人资料
type AuthService struct {
	repo          model.Repository
	hasher        auth.PasswordHasher
	tokens        *auth.Manager
	signupEnabled bool
}

func NewAuthService(repo model.Repository, hasher auth.PasswordHasher, tokens *auth.Manager, signupEnabled bool) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, signupEnabled: signupEnabled}
}

// Status 报告是否已有用户以及是否开放注册
func (s *AuthService) Status(ctx context.Context) (*entity.AuthStatusResponse, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, unavailable("count users", err)
	}
	return &entity.AuthStatusResponse{HasUser: count > 0, SignupEnabled: count == 0 || s.signupEnabled}, nil
}

// Signup creates an account. The very first account becomes admin; later
// ones become staff and require signup to be enabled.
func (s *AuthService) Signup(ctx context.Context, req entity.AuthSignupRequest) (*entity.AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, invalid("display_name", "is required")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, invalid("password", "must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, unavailable("hash password", err)
	}
	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		Role:         entity.UserRoleStaff,
		IsActive:     true,
	}

	// 计数与插入在同一事务内，避免并发注册出现两个管理员
	err = s.repo.Transaction(ctx, func(tx model.Repository) error {
		count, err := tx.CountUsers(ctx)
		if err != nil {
			return unavailable("count users", err)
		}
		if count == 0 {
			user.Role = entity.UserRoleAdmin
		} else if !s.signupEnabled {
			return ErrSignupDisabled
		}

		if _, err := tx.GetUserByEmail(ctx, email); err == nil {
			return &ConflictError{Field: "email"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return unavailable("lookup user", err)
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Field: "email"}
			}
			return unavailable("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed up")
	return s.session(ctx, user)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req entity.AuthLoginRequest) (*entity.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalid("", "email and password are required")
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, unavailable("lookup user", err)
	}
	if err := s.hasher.Verify(user.PasswordHash, req.Password); err != nil {
		logrus.WithField("user_id", user.ID).Warn("password verification failed")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	now := reqctx.Now(ctx).UTC()
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{LastLoginAt: &now}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}
	return s.session(ctx, user)
}

// Authenticate resolves a bearer token into a caller identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (reqctx.Identity, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return reqctx.Identity{}, ErrUnauthenticated
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reqctx.Identity{}, ErrUnauthenticated
		}
		return reqctx.Identity{}, unavailable("load user", err)
	}
	if !user.IsActive {
		return reqctx.Identity{}, ErrForbidden
	}
	// 角色以数据库为准，令牌中的角色仅供参考
	return reqctx.Identity{UserID: user.ID, Name: user.DisplayName, Email: user.Email, Role: user.Role}, nil
}

func (s *AuthService) Profile(ctx context.Context) (*entity.UserSummary, error) {
	identity, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user", "", "load user")
	}
	summary := user.ToSummary()
	return &summary, nil
}

// UpdateProfile changes name, email and password of the caller. The role is
// never touched.
func (s *AuthService) UpdateProfile(ctx context.Context, req entity.ProfileUpdateRequest) (*entity.UserSummary, error) {
	identity, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user", "", "load user")
	}

	var updates entity.UserUpdates
	if name := strings.TrimSpace(req.DisplayName); name != "" && name != user.DisplayName {
		updates.DisplayName = &name
	}
	if strings.TrimSpace(req.Email) != "" {
		email, err := normalizeEmail(req.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			other, err := s.repo.GetUserByEmail(ctx, email)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, &ConflictError{Field: "email"}
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, unavailable("lookup user", err)
			}
			updates.Email = &email
		}
	}
	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, invalid("current_password", "is required to change the password")
		}
		if err := s.hasher.Verify(user.PasswordHash, req.CurrentPassword); err != nil {
			return nil, invalid("current_password", "is incorrect")
		}
		if len(req.NewPassword) < auth.MinPasswordLength {
			return nil, invalid("new_password", "must be at least %d characters", auth.MinPasswordLength)
		}
		if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
			return nil, invalid("confirm_password", "does not match")
		}
		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return nil, unavailable("hash password", err)
		}
		updates.PasswordHash = &hash
	}

	if !updates.IsEmpty() {
		if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, &ConflictError{Field: "email"}
			}
			return nil, unavailable("update user", err)
		}
	}
	return s.Profile(ctx)
}

// ListUsers 管理员查看用户列表
func (s *AuthService) ListUsers(ctx context.Context, query *entity.UserQuery) (*entity.UserListResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	response := &entity.UserListResponse{Users: make([]entity.UserSummary, 0, len(users)), Meta: meta}
	for idx := range users {
		response.Users = append(response.Users, users[idx].ToSummary())
	}
	return response, nil
}

func (s *AuthService) session(ctx context.Context, user *entity.DbUser) (*entity.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user, reqctx.Now(ctx))
	if err != nil {
		return nil, unavailable("issue token", err)
	}
	return &entity.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user.ToSummary()}, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", invalid("email", "is required")
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}
