package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/catalog-storefront/internal/admin/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUnknownMetric      = errors.New("unknown dashboard metric")
)

// RateLimitError is returned by Login while the client is locked out.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

type UseCase interface {
	// Login checks credentials for the client identified by clientKey and
	// returns a signed session on success.
	Login(ctx context.Context, clientKey, username, password string) (*dto.Session, error)
	CreateAdmin(ctx context.Context, username, name, password string) (*model.AdminUser, error)
	ResetPassword(ctx context.Context, username, password string) error
	Dashboard(ctx context.Context) (map[string]int, error)
}
