package admin

import (
	"context"
	"time"

	"github.com/fekuna/catalog-storefront/internal/model"
)

type Repository interface {
	FindByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	Create(ctx context.Context, admin *model.AdminUser) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// Count evaluates one of the dto.Metrics.
	Count(ctx context.Context, metric string) (int, error)
}
