package lead

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/broker"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadySubscribed = errors.New("email is already subscribed")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidStatus     = errors.New("status must be one of new, read, replied")
	ErrInvalidKind       = errors.New("unknown lead kind")
)

// Kind selects one of the three lead tables.
type Kind string

const (
	KindEnquiry          Kind = "contact_enquiry"
	KindSubscription     Kind = "newsletter_subscription"
	KindCatalogueRequest Kind = "catalogue_request"
)

func (k Kind) Table() (string, bool) {
	switch k {
	case KindEnquiry:
		return "contact_enquiries", true
	case KindSubscription:
		return "newsletter_subscriptions", true
	case KindCatalogueRequest:
		return "catalogue_requests", true
	}
	return "", false
}

// Event types published for accepted leads.
const (
	EventContactSubmitted   = "ContactSubmitted"
	EventNewsletterJoined   = "NewsletterSubscribed"
	EventNewsletterLeft     = "NewsletterUnsubscribed"
	EventCatalogueRequested = "CatalogueRequested"
)

type UseCase interface {
	SubmitEnquiry(ctx context.Context, input *dto.ContactInput) (*model.ContactEnquiry, error)
	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	Unsubscribe(ctx context.Context, email string) error
	RequestCatalogue(ctx context.Context, input *dto.CatalogueInput) (*model.CatalogueRequest, error)

	ListEnquiries(ctx context.Context, filters *dto.ListFilters) ([]model.ContactEnquiry, int, error)
	UpdateEnquiryStatus(ctx context.Context, id, status string) error
	ListSubscriptions(ctx context.Context, filters *dto.ListFilters) ([]model.NewsletterSubscription, int, error)
	ListCatalogueRequests(ctx context.Context, filters *dto.ListFilters) ([]model.CatalogueRequest, int, error)
	DeleteLead(ctx context.Context, kind Kind, id string) error

	// ExportCatalogueRequests writes a PDF report of requests created in [from, to].
	ExportCatalogueRequests(ctx context.Context, from, to *time.Time, w io.Writer) error
}

// Publisher is satisfied by *broker.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key string, event broker.Event) error
}

// ProductFinder is the slice of the product repository catalogue requests need.
type ProductFinder interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
}
