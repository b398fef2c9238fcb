package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/photobooth/api/models"
	"github.com/aouyang1/photobooth/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminPassword is used when no admin password was ever configured.
const DefaultAdminPassword = "1234"

const minPasswordLength = 4

var (
	// ErrInvalidCredentials is returned when the admin password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned for a missing, unknown or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWeakPassword is returned when a new password is too short.
	ErrWeakPassword = errors.New("password too short")
)

// AdminAuth gates the settings panel behind a bcrypt hashed password and
// hands out bearer tokens that expire after ttl.
type AdminAuth struct {
	db  *store.Database
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewAdminAuth(db *store.Database, ttl time.Duration) *AdminAuth {
	return &AdminAuth{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]time.Time),
	}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Bootstrap stores a hash for password when no admin password exists yet.
func (a *AdminAuth) Bootstrap(password string) error {
	_, err := a.db.GetAdminHash()
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if password == "" {
		slog.Warn("no admin password configured, using the default one; change it from the admin panel")
		password = DefaultAdminPassword
	}
	return a.SetPassword(password)
}

func (a *AdminAuth) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return a.db.UpsertAdminHash(hash)
}

// ChangePassword replaces the admin password after checking the current one
// and revokes every issued token.
func (a *AdminAuth) ChangePassword(current, next string) error {
	hash, err := a.db.GetAdminHash()
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if err := a.SetPassword(next); err != nil {
		return err
	}
	a.LogoutAll()
	return nil
}

// Login checks password and returns a new token.
func (a *AdminAuth) Login(password string) (string, time.Time, error) {
	hash, err := a.db.GetAdminHash()
	if errors.Is(err, store.ErrNotFound) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	expires := a.now().Add(a.ttl)

	a.mu.Lock()
	a.tokens[token] = expires
	a.mu.Unlock()
	return token, expires, nil
}

func (a *AdminAuth) Logout(token string) {
	a.mu.Lock()
	delete(a.tokens, token)
	a.mu.Unlock()
}

// LogoutAll revokes every token, used after a password change.
func (a *AdminAuth) LogoutAll() {
	a.mu.Lock()
	clear(a.tokens)
	a.mu.Unlock()
}

// Validate reports whether token is known and not expired. Expired tokens
// are dropped.
func (a *AdminAuth) Validate(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	expires, ok := a.tokens[token]
	if !ok {
		return ErrUnauthorized
	}
	if a.now().After(expires) {
		delete(a.tokens, token)
		return ErrUnauthorized
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid bearer token.
func (a *AdminAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || a.Validate(token) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Admin login required"})
			return
		}
		c.Next()
	}
}
