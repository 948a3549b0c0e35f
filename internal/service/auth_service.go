package service

import (
	"context"
	"errors"
	"strings"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/utils"

	"github.com/sirupsen/logrus"
)

// dummyPasswordHash keeps the unknown-email path as slow as a real password check.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users         repository.UserRepository
	verifications *VerificationService
	security      securityRecorder

	codeSender   CodeSender
	passwordHash PasswordHasher
	tokens       TokenIssuer
	logger       logrus.FieldLogger
}

func NewAuthService(
	users repository.UserRepository,
	verifications *VerificationService,
	securityLogs repository.SecurityLogRepository,
	codeSender CodeSender,
	passwordHash PasswordHasher,
	tokens TokenIssuer,
	logger logrus.FieldLogger,
) *AuthService {
	logger = loggerOrDefault(logger)
	return &AuthService{
		users:         users,
		verifications: verifications,
		security:      securityRecorder{logs: securityLogs, logger: logger},
		codeSender:    codeSender,
		passwordHash:  passwordHash,
		tokens:        tokens,
		logger:        logger,
	}
}

// Signup creates an unverified user and issues its first verification code.
// A failed code delivery does not undo the signup; the user can ask for a resend.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         entity.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError(err)
	}

	if err := s.sendVerificationCode(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("verification code not delivered on signup")
	}

	s.security.record(ctx, &user.ID, input.IPAddress, entity.Signup, nil)
	return user, nil
}

// Verify consumes the submitted code and marks the user verified.
func (s *AuthService) Verify(ctx context.Context, input VerifyInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Code) == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.verifications.Validate(ctx, user.ID, strings.TrimSpace(input.Code)); err != nil {
		return nil, err
	}
	if err := s.users.SetVerified(ctx, user.ID); err != nil {
		return nil, storageError(err)
	}
	user.IsVerified = true

	s.security.record(ctx, &user.ID, input.IPAddress, entity.EmailVerified, nil)
	return user, nil
}

// ResendCode replaces the outstanding code of an unverified user with a new one.
func (s *AuthService) ResendCode(ctx context.Context, email string, ipAddress *string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storageError(err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.sendVerificationCode(ctx, user); err != nil {
		return err
	}
	s.security.record(ctx, &user.ID, ipAddress, entity.CodeResent, nil)
	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.security.record(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		s.security.record(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.security.record(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, nil)
	return pair, nil
}

// Refresh mints a new access token from a refresh token. The role is read
// from the store so a demotion takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, ipAddress *string) (*AccessGrant, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	claims, err := s.tokens.Validate(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}

	s.security.record(ctx, &user.ID, ipAddress, entity.TokenRefreshed, nil)
	return &AccessGrant{
		AccessToken: accessToken,
		ExpiresIn:   int64(expiresIn.Seconds()),
	}, nil
}

func (s *AuthService) issueTokenPair(user *entity.User) (*TokenPair, error) {
	accessToken, accessTTL, err := s.tokens.IssueAccessToken(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, refreshTTL, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        int64(accessTTL.Seconds()),
		RefreshExpiresIn: int64(refreshTTL.Seconds()),
	}, nil
}

func (s *AuthService) sendVerificationCode(ctx context.Context, user *entity.User) error {
	code, err := s.verifications.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	if s.codeSender == nil {
		return nil
	}
	return s.codeSender.SendVerificationCode(ctx, user.Email, code)
}
