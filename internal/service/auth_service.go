package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"alcyxob/lift-log/internal/domain"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "lift-log"

// IdentityEvent is delivered to OnIdentityChange subscribers. User is nil
// when UserID signed out.
type IdentityEvent struct {
	UserID string
	User   *domain.User
}

// SignedIn reports whether the event carries a current identity.
func (e IdentityEvent) SignedIn() bool {
	return e.User != nil
}

// AuthService is the identity gate. Every failure is a *domain.AuthError.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	SignOut(ctx context.Context, token string) error
	// Identify resolves a session token to its user.
	Identify(ctx context.Context, token string) (*domain.User, error)
	// OnIdentityChange registers fn for sign-in and sign-out events and
	// returns a func that removes it.
	OnIdentityChange(fn func(IdentityEvent)) (unsubscribe func())
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	tokenRepo     repository.TokenRepository
	jwtSecret     string
	jwtExpiration time.Duration
	validate      *validator.Validate
	metrics       *metrics.Manager

	listenersMu sync.Mutex
	listeners   map[int]func(IdentityEvent)
	nextID      int
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	m *metrics.Manager,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	return &authService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		validate:      validator.New(),
		metrics:       m,
		listeners:     make(map[int]func(IdentityEvent)),
	}
}

func unknownAuthError(err error) *domain.AuthError {
	return &domain.AuthError{Reason: domain.ReasonUnknown, Err: err}
}

func (s *authService) checkCredentials(email, password string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.NewAuthError(domain.ReasonInvalidEmail)
	}
	if password == "" {
		return domain.NewAuthError(domain.ReasonMissingPassword)
	}
	return nil
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := s.checkCredentials(email, password); err != nil {
		return nil, err
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.NewAuthError(domain.ReasonWeakPassword)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, unknownAuthError(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.NewAuthError(domain.ReasonEmailAlreadyInUse)
		}
		return nil, unknownAuthError(err)
	}

	log.Infof("registered user [%s]", user.ID)
	user.PasswordHash = ""
	return user, nil
}

// SignIn checks the credentials and issues a session token.
func (s *authService) SignIn(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			var authErr *domain.AuthError
			if errors.As(err, &authErr) {
				result = string(authErr.Reason)
			}
		}
		s.metrics.CounterSignIns.WithLabelValues(result).Inc()
	}()

	email = strings.TrimSpace(email)
	if err = s.checkCredentials(email, password); err != nil {
		return "", nil, err
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, domain.NewAuthError(domain.ReasonUserNotFound)
		}
		return "", nil, unknownAuthError(err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.NewAuthError(domain.ReasonInvalidCredential)
	}
	if user.Disabled {
		return "", nil, domain.NewAuthError(domain.ReasonUserDisabled)
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, unknownAuthError(fmt.Errorf("sign token: %w", err))
	}

	user.PasswordHash = ""
	s.notify(IdentityEvent{UserID: user.ID, User: user})
	return token, user, nil
}

// SignOut revokes token. Signing out twice with the same token is not an error.
func (s *authService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parseJWT(token)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.jwtExpiration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return unknownAuthError(err)
	}

	log.Debugf("user [%s] signed out", claims.UserID)
	s.notify(IdentityEvent{UserID: claims.UserID})
	return nil
}

func (s *authService) Identify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseJWT(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, unknownAuthError(err)
	}
	if revoked {
		return nil, domain.NewAuthError(domain.ReasonInvalidCredential)
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewAuthError(domain.ReasonUserNotFound)
		}
		return nil, unknownAuthError(err)
	}
	if user.ID != claims.UserID {
		return nil, domain.NewAuthError(domain.ReasonInvalidCredential)
	}
	if user.Disabled {
		return nil, domain.NewAuthError(domain.ReasonUserDisabled)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) OnIdentityChange(fn func(IdentityEvent)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *authService) notify(event IdentityEvent) {
	s.listenersMu.Lock()
	listeners := make([]func(IdentityEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) parseJWT(tokenString string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, &domain.AuthError{Reason: domain.ReasonInvalidCredential, Err: err}
	}
	if claims.UserID == "" || claims.Email == "" || claims.ID == "" || claims.Issuer != tokenIssuer {
		return nil, domain.NewAuthError(domain.ReasonInvalidCredential)
	}
	return claims, nil
}
