package service

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"category-dashboard/internal/model"
	"category-dashboard/internal/repository"
)

const minPasswordLength = 6

// AuthOptions tunes token issuing and password hashing.
type AuthOptions struct {
	Secret   string
	TokenTTL time.Duration
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

// AuthService registers users, checks credentials and issues bearer tokens.
type AuthService struct {
	users  *repository.UserRepository
	log    logrus.FieldLogger
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAuthService(users *repository.UserRepository, log logrus.FieldLogger, opts AuthOptions) *AuthService {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:  users,
		log:    log,
		secret: []byte(opts.Secret),
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
	}
}

// Register validates the input, hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.UserProfile, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	verr := &ValidationError{}
	if name == "" {
		verr.add("name", "Name is required")
	}
	// Only bare addresses; display-name forms would bypass the unique email.
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.add("email", "Please enter a valid email")
	}
	if len(password) < minPasswordLength {
		verr.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if err := verr.orNil(); err != nil {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.NewUser{Name: name, Email: email, Password: string(hashed)})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.UserProfile, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &model.UserProfile{ID: user.ID, Name: user.Name, Email: user.Email}, token, nil
}

// Profile returns the public profile of userID, or nil if it no longer exists.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.UserProfile, error) {
	return s.users.FindByID(ctx, userID)
}

// ParseToken verifies a bearer token and returns the user id it was issued for.
func (s *AuthService) ParseToken(raw string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return uint(id), nil
}

func (s *AuthService) issueToken(userID uint) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
