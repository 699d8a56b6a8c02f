package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/dto"
	"github.com/vibast-solutions/ms-go-reports/app/entity"
	"github.com/vibast-solutions/ms-go-reports/app/metrics"
	"github.com/vibast-solutions/ms-go-reports/app/repository"
	"github.com/vibast-solutions/ms-go-reports/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// bcrypt silently ignores input past 72 bytes; truncate identically at hash
// and verify time so long passwords do not produce false negatives.
const bcryptMaxPasswordBytes = 72

// Claims is the signed payload of every issued token. Subject carries the
// user id and ID the per-issuance jti.
type Claims struct {
	Email     string `json:"email,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type userDirectory interface {
	Create(ctx context.Context, user *entity.User) error
	FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

type revocationList interface {
	MarkRevoked(tokenType, jti string) bool
	IsRevoked(tokenType, jti string) bool
}

type AuthService struct {
	users         userDirectory
	revoked       revocationList
	cfg           *config.Config
	signingMethod jwt.SigningMethod
}

func NewAuthService(users userDirectory, revoked revocationList, cfg *config.Config) *AuthService {
	return &AuthService{
		users:         users,
		revoked:       revoked,
		cfg:           cfg,
		signingMethod: jwt.GetSigningMethod(cfg.JWTAlgorithm),
	}
}

// SeedDevAdmin creates the configured development administrator unless a user
// with that email already exists. Called once at process start.
func (s *AuthService) SeedDevAdmin(ctx context.Context) error {
	admin := s.cfg.DevAdmin
	if admin.Email == "" {
		return nil
	}

	existing, err := s.users.FindByCanonicalEmail(ctx, CanonicalizeEmail(admin.Email))
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := s.hashPassword(admin.Password)
	if err != nil {
		return err
	}

	user := &entity.User{
		Email:          admin.Email,
		CanonicalEmail: CanonicalizeEmail(admin.Email),
		PasswordHash:   hash,
		Name:           admin.Name,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	logrus.WithField("email", admin.Email).Info("Seeded development admin")
	return nil
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*dto.RegisterResult, error) {
	canonicalEmail := CanonicalizeEmail(email)

	existing, err := s.users.FindByCanonicalEmail(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if err := s.cfg.PasswordPolicy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:          email,
		CanonicalEmail: canonicalEmail,
		PasswordHash:   hash,
		Name:           name,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return &dto.RegisterResult{User: user}, nil
}

// Login verifies the credentials and issues an access/refresh token pair.
// Unknown email and wrong password collapse into the same error so the
// response cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenPair, error) {
	user, err := s.users.FindByCanonicalEmail(ctx, CanonicalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.verifyPassword(password, user.PasswordHash) {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.Logins.WithLabelValues("inactive").Inc()
		return nil, ErrInactiveAccount
	}

	pair, err := s.issueTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("success").Inc()
	logrus.WithField("user_id", user.ID).Info("Login successful")
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. MarkRevoked is an atomic check-and-set, so a concurrent
// rotation of the same token loses even if its own revocation check passed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if alreadyRevoked := s.revoked.MarkRevoked(TokenTypeRefresh, claims.ID); alreadyRevoked {
		return nil, ErrTokenRevoked
	}

	pair, err := s.issueTokenPair(claims.Subject, claims.Email)
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", claims.Subject).Info("Token pair rotated")
	return pair, nil
}

// Logout revokes the presented access token's jti.
func (s *AuthService) Logout(_ context.Context, claims *Claims) error {
	s.revoked.MarkRevoked(TokenTypeAccess, claims.ID)
	logrus.WithField("user_id", claims.Subject).Info("Logout")
	return nil
}

// RequestPasswordReset issues a reset token for the given email. The caller
// must present the same response whether or not the user exists; a missing
// user surfaces here as ErrUserNotFound for the controller to mask.
//
// The token is returned directly instead of delivered out-of-band. That is a
// development simplification: in production the token must reach the user via
// a side channel (email), never the requester.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByCanonicalEmail(ctx, CanonicalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	token, _, _, err := s.issueToken(user.ID, user.Email, TokenTypeReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return "", err
	}

	logrus.WithField("user_id", user.ID).Info("Password reset requested")
	return token, nil
}

// ResetPassword consumes a reset token and overwrites the user's password
// hash. The token's jti is revoked on success, making reset tokens
// single-use.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.VerifyToken(token, TokenTypeReset)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.revoked.MarkRevoked(TokenTypeReset, claims.ID)

	logrus.WithField("user_id", user.ID).Info("Password reset")
	return nil
}

// CurrentUser resolves verified access-token claims to the user record. A
// valid token whose subject no longer exists is a server-side inconsistency.
func (s *AuthService) CurrentUser(ctx context.Context, claims *Claims) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile mutates name and/or email. An email change checks the new
// address is free and re-keys the directory entry.
func (s *AuthService) UpdateProfile(ctx context.Context, claims *Claims, name, email *string) (*entity.User, error) {
	user, err := s.CurrentUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	if name != nil && *name != "" {
		user.Name = *name
	}

	if email != nil && *email != "" && *email != user.Email {
		canonical := CanonicalizeEmail(*email)
		if canonical != user.CanonicalEmail {
			existing, err := s.users.FindByCanonicalEmail(ctx, canonical)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrEmailTaken
			}
		}
		user.Email = *email
		user.CanonicalEmail = canonical
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("Profile updated")
	return user, nil
}

// ValidateAccessToken is the guard used by the bearer middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.VerifyToken(tokenString, TokenTypeAccess)
}

// VerifyToken checks, in order: signature and expiry, token type, and
// revocation. All three must pass; the checks are independent.
func (s *AuthService) VerifyToken(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{s.cfg.JWTAlgorithm}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expectedType {
		return nil, ErrInvalidToken
	}

	// A claim set without a jti is malformed, not revoked.
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if s.revoked.IsRevoked(expectedType, claims.ID) {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (s *AuthService) issueTokenPair(userID, email string) (*dto.TokenPair, error) {
	accessToken, _, expiresIn, err := s.issueToken(userID, email, TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, _, _, err := s.issueToken(userID, email, TokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		UserID:       userID,
	}, nil
}

// issueToken signs a claim set with a fresh jti. The signature covers every
// field, type and jti included, so tampering with any of them invalidates the
// token.
func (s *AuthService) issueToken(userID, email, tokenType string, ttl time.Duration) (string, string, int64, error) {
	jti := uuid.NewString()
	now := time.Now()

	claims := &Claims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(s.signingMethod, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", 0, err
	}

	return signed, jti, int64(ttl.Seconds()), nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword treats every internal failure (malformed digest, encoding
// error) as a mismatch; it never surfaces an error to the caller.
func (s *AuthService) verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxPasswordBytes {
		b = b[:bcryptMaxPasswordBytes]
	}
	return b
}
