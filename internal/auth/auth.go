// Package auth manages dashboard users and their sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned by SignIn for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrEmailTaken is returned by CreateUser when the email is registered.
	ErrEmailTaken = errors.New("auth: email already registered")
)

// CreateUserOpts holds parameters for registering a user.
type CreateUserOpts struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SessionOpts describes the client a session is issued to.
type SessionOpts struct {
	TTL       time.Duration
	UserAgent string
	IPAddress string
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewToken returns a random 64-character hex session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateUser registers a user with a hashed password.
func CreateUser(ctx context.Context, db *gorm.DB, opts CreateUserOpts) (*models.User, error) {
	opts.Email = normalizeEmail(opts.Email)
	opts.Name = strings.TrimSpace(opts.Name)
	if err := rpc.Validate(opts); err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", opts.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("auth: check email %s: %w", opts.Email, err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:         opts.Name,
		Email:        opts.Email,
		PasswordHash: hash,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("auth: create user %s: %w", opts.Email, err)
	}
	return &user, nil
}

// UserByEmail returns the user registered under email.
func UserByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rpc.NotFound(fmt.Sprintf("No user with email %s", normalizeEmail(email)))
		}
		return nil, fmt.Errorf("auth: find user %s: %w", email, err)
	}
	return &user, nil
}

// SignIn verifies credentials and issues a new session.
func SignIn(ctx context.Context, db *gorm.DB, email, password string, opts SessionOpts) (*models.Session, error) {
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return IssueSession(ctx, db, user.ID, opts)
}

// IssueSession creates a session for userID without checking credentials.
func IssueSession(ctx context.Context, db *gorm.DB, userID string, opts SessionOpts) (*models.Session, error) {
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("auth: session ttl must be positive")
	}
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(opts.TTL),
		UserAgent: truncate(opts.UserAgent, 512),
		IPAddress: truncate(opts.IPAddress, 64),
	}
	if err := db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("auth: create session for %s: %w", userID, err)
	}
	return &session, nil
}

// Lookup resolves token to its user. A missing, unknown or expired token
// yields an UNAUTHORIZED procedure error.
func Lookup(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, rpc.Unauthorized()
	}
	var session models.Session
	err := db.WithContext(ctx).Preload("User").
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rpc.Unauthorized()
		}
		return nil, fmt.Errorf("auth: lookup session: %w", err)
	}
	if session.User.ID == "" {
		return nil, rpc.Unauthorized()
	}
	return &session.User, nil
}

// SignOut deletes the session behind token. Unknown tokens are ignored.
func SignOut(ctx context.Context, db *gorm.DB, token string) error {
	if token == "" {
		return nil
	}
	if err := db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("auth: sign out: %w", err)
	}
	return nil
}

// PruneExpired deletes sessions that expired before now.
func PruneExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("auth: prune sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
