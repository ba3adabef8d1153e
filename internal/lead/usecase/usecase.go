package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/catalog-storefront/internal/lead"
	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/broker"
	"github.com/fekuna/catalog-storefront/pkg/database/postgres"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type leadUseCase struct {
	repo      lead.Repository
	products  lead.ProductFinder
	publisher lead.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewLeadUseCase builds the lead usecase. publisher may be nil when no
// brokers are configured.
func NewLeadUseCase(repo lead.Repository, products lead.ProductFinder, publisher lead.Publisher, log logger.ZapLogger) lead.UseCase {
	return &leadUseCase{
		repo:      repo,
		products:  products,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *leadUseCase) SubmitEnquiry(ctx context.Context, input *dto.ContactInput) (*model.ContactEnquiry, error) {
	e := &model.ContactEnquiry{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Email:     normalizeEmail(input.Email),
		Phone:     optional(input.Phone),
		Company:   optional(input.Company),
		Subject:   optional(input.Subject),
		Message:   strings.TrimSpace(input.Message),
		Status:    model.EnquiryStatusNew,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.CreateEnquiry(ctx, e); err != nil {
		return nil, err
	}

	uc.publish(e.ID, lead.EventContactSubmitted, e)
	uc.logger.Info("contact enquiry received", zap.String("id", e.ID))
	return e, nil
}

func (uc *leadUseCase) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	email = normalizeEmail(email)

	existing, err := uc.repo.FindSubscription(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsActive {
			return nil, lead.ErrAlreadySubscribed
		}
		if err := uc.repo.SetSubscriptionActive(ctx, existing.ID, true); err != nil {
			return nil, err
		}
		existing.IsActive = true
		uc.publish(existing.ID, lead.EventNewsletterJoined, existing)
		return existing, nil
	}

	s := &model.NewsletterSubscription{
		ID:        uuid.New().String(),
		Email:     email,
		IsActive:  true,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.CreateSubscription(ctx, s); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if postgres.IsUniqueViolation(err) {
			return nil, lead.ErrAlreadySubscribed
		}
		return nil, err
	}

	uc.publish(s.ID, lead.EventNewsletterJoined, s)
	return s, nil
}

func (uc *leadUseCase) Unsubscribe(ctx context.Context, email string) error {
	s, err := uc.repo.FindSubscription(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if s == nil {
		return lead.ErrNotFound
	}
	if !s.IsActive {
		return nil
	}
	if err := uc.repo.SetSubscriptionActive(ctx, s.ID, false); err != nil {
		return err
	}
	s.IsActive = false
	uc.publish(s.ID, lead.EventNewsletterLeft, s)
	return nil
}

func (uc *leadUseCase) RequestCatalogue(ctx context.Context, input *dto.CatalogueInput) (*model.CatalogueRequest, error) {
	r := &model.CatalogueRequest{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Email:       normalizeEmail(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Company:     optional(input.Company),
		ProductName: strings.TrimSpace(input.ProductName),
		Message:     optional(input.Message),
		CreatedAt:   uc.now(),
	}

	if id := strings.TrimSpace(input.ProductID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, lead.ErrProductNotFound
		}
		p, err := uc.products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, lead.ErrProductNotFound
		}
		r.ProductID = &p.ID
		r.ProductName = p.Name
		r.PDFURL = p.PDFURL
	}

	if err := uc.repo.CreateCatalogueRequest(ctx, r); err != nil {
		return nil, err
	}

	uc.publish(r.ID, lead.EventCatalogueRequested, r)
	uc.logger.Info("catalogue requested", zap.String("id", r.ID), zap.String("product", r.ProductName))
	return r, nil
}

func (uc *leadUseCase) ListEnquiries(ctx context.Context, filters *dto.ListFilters) ([]model.ContactEnquiry, int, error) {
	return uc.repo.ListEnquiries(ctx, filters)
}

func (uc *leadUseCase) UpdateEnquiryStatus(ctx context.Context, id, status string) error {
	switch status {
	case model.EnquiryStatusNew, model.EnquiryStatusRead, model.EnquiryStatusReplied:
	default:
		return lead.ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return lead.ErrNotFound
	}
	updated, err := uc.repo.UpdateEnquiryStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !updated {
		return lead.ErrNotFound
	}
	return nil
}

func (uc *leadUseCase) ListSubscriptions(ctx context.Context, filters *dto.ListFilters) ([]model.NewsletterSubscription, int, error) {
	return uc.repo.ListSubscriptions(ctx, filters)
}

func (uc *leadUseCase) ListCatalogueRequests(ctx context.Context, filters *dto.ListFilters) ([]model.CatalogueRequest, int, error) {
	return uc.repo.ListCatalogueRequests(ctx, filters)
}

func (uc *leadUseCase) DeleteLead(ctx context.Context, kind lead.Kind, id string) error {
	if _, ok := kind.Table(); !ok {
		return lead.ErrInvalidKind
	}
	if _, err := uuid.Parse(id); err != nil {
		return lead.ErrNotFound
	}
	deleted, err := uc.repo.Delete(ctx, kind, id)
	if err != nil {
		return err
	}
	if !deleted {
		return lead.ErrNotFound
	}
	uc.logger.Info("lead deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

// publish hands the event to the broker in the background; visitors never
// see a broker failure.
func (uc *leadUseCase) publish(key, eventType string, payload any) {
	if uc.publisher == nil {
		return
	}
	event := broker.Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: uc.now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := uc.publisher.Publish(ctx, key, event); err != nil {
			uc.logger.Error("failed to publish lead event",
				zap.String("event_type", eventType),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
