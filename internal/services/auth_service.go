package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/auth"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	opSignup        = "auth.signup"
	opSignIn        = "auth.signin"
	opFirebaseLogin = "auth.firebase_login"
)

type AuthServiceConfig struct {
	Profiles     repositories.ProfileRepository
	Tokens       *auth.TokenManager
	Firebase     auth.FirebaseVerifier
	Logger       *zap.Logger
	StoreTimeout time.Duration
}

// AuthService signs users up and in and issues backend tokens.
type AuthService struct {
	profiles repositories.ProfileRepository
	tokens   *auth.TokenManager
	firebase auth.FirebaseVerifier
	logger   *zap.Logger
	timeout  time.Duration
}

func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.Profiles == nil || cfg.Tokens == nil {
		return nil, fmt.Errorf("auth: profile repository and token manager required")
	}
	return &AuthService{
		profiles: cfg.Profiles,
		tokens:   cfg.Tokens,
		firebase: cfg.Firebase,
		logger:   loggerOrDefault(cfg.Logger),
		timeout:  storeTimeout(cfg.StoreTimeout),
	}, nil
}

// Signup creates an email and password account.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := formValidator.Struct(req); err != nil {
		return nil, validationError(opSignup, err)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.profiles.GetProfileByEmail(ctx, req.Email)
	if err == nil {
		return nil, newError(KindDomain, opSignup, ErrEmailTaken.Error(), ErrEmailTaken)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeError(opSignup, userNotFoundMsg, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newError(KindPersistence, opSignup, "failed to hash password", err)
	}
	profile := &models.Profile{Email: req.Email, PasswordHash: string(hashedPassword)}
	if req.DisplayName != "" {
		profile.DisplayName = &req.DisplayName
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, newError(KindPersistence, opSignup, "failed to create user", err)
	}
	s.logger.Info("user signed up", zap.Uint("user_id", profile.ID))
	return s.issue(opSignup, profile)
}

// SignIn checks the password of an email account.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := formValidator.Struct(req); err != nil {
		return nil, validationError(opSignIn, err)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfileByEmail(ctx, req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(KindAuth, opSignIn, ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}
	if err != nil {
		return nil, storeError(opSignIn, userNotFoundMsg, err)
	}
	if profile.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		return nil, newError(KindAuth, opSignIn, ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}
	return s.issue(opSignIn, profile)
}

// FirebaseLogin exchanges a Firebase ID token for a backend token. The
// profile is matched by Firebase UID, then by email, and created when
// neither exists.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	if s.firebase == nil {
		return nil, newError(KindAuth, opFirebaseLogin, "firebase sign-in is not enabled", nil)
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, newError(KindValidation, opFirebaseLogin, "id_token is required", nil)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.firebase.Verify(ctx, idToken)
	if err != nil {
		return nil, newError(KindAuth, opFirebaseLogin, "invalid or expired Firebase ID token", err)
	}

	profile, err := s.profiles.GetProfileByFirebaseUID(ctx, identity.UID)
	if err == nil {
		return s.issue(opFirebaseLogin, profile)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeError(opFirebaseLogin, userNotFoundMsg, err)
	}

	uid := identity.UID
	email := normalizeEmail(identity.Email)
	profile, err = s.profiles.GetProfileByEmail(ctx, email)
	switch {
	case err == nil:
		profile.FirebaseUID = &uid
		if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
			return nil, newError(KindPersistence, opFirebaseLogin, "failed to link Firebase account", err)
		}
	case errors.Is(err, repositories.ErrNotFound):
		profile = &models.Profile{Email: email, FirebaseUID: &uid}
		if name := strings.TrimSpace(identity.Name); name != "" {
			profile.DisplayName = &name
		}
		if err := s.profiles.CreateProfile(ctx, profile); err != nil {
			return nil, newError(KindPersistence, opFirebaseLogin, "failed to create user", err)
		}
		s.logger.Info("user created from Firebase login", zap.Uint("user_id", profile.ID))
	default:
		return nil, storeError(opFirebaseLogin, userNotFoundMsg, err)
	}
	return s.issue(opFirebaseLogin, profile)
}

// Authenticate resolves a backend token, falling back to a Firebase ID
// token for clients that send those directly.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JwtCustomClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err == nil {
		return claims, nil
	}
	if s.firebase == nil {
		return nil, newError(KindAuth, "auth.authenticate", auth.ErrInvalidToken.Error(), err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	identity, verifyErr := s.firebase.Verify(ctx, token)
	if verifyErr != nil {
		return nil, newError(KindAuth, "auth.authenticate", auth.ErrInvalidToken.Error(), err)
	}
	profile, err := s.profiles.GetProfileByFirebaseUID(ctx, identity.UID)
	if err != nil {
		return nil, newError(KindAuth, "auth.authenticate", "sign in to link your Firebase account", err)
	}
	return &models.JwtCustomClaims{UserID: profile.ID, Email: profile.Email}, nil
}

func (s *AuthService) issue(op string, profile *models.Profile) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(profile)
	if err != nil {
		return nil, newError(KindPersistence, op, "failed to issue token", err)
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: profile}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
