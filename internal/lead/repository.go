package lead

import (
	"context"

	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
)

type Repository interface {
	CreateEnquiry(ctx context.Context, e *model.ContactEnquiry) error
	ListEnquiries(ctx context.Context, filters *dto.ListFilters) ([]model.ContactEnquiry, int, error)
	UpdateEnquiryStatus(ctx context.Context, id, status string) (bool, error)

	FindSubscription(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	CreateSubscription(ctx context.Context, s *model.NewsletterSubscription) error
	SetSubscriptionActive(ctx context.Context, id string, active bool) error
	ListSubscriptions(ctx context.Context, filters *dto.ListFilters) ([]model.NewsletterSubscription, int, error)

	CreateCatalogueRequest(ctx context.Context, r *model.CatalogueRequest) error
	ListCatalogueRequests(ctx context.Context, filters *dto.ListFilters) ([]model.CatalogueRequest, int, error)

	Delete(ctx context.Context, kind Kind, id string) (bool, error)
}
