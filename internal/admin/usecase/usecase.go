package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/catalog-storefront/internal/admin"
	"github.com/fekuna/catalog-storefront/internal/admin/dto"
	"github.com/fekuna/catalog-storefront/internal/auth"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/database/postgres"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minPasswordLength = 8

// dummyHash keeps the unknown-username path as slow as a real bcrypt check.
var dummyHash, _ = auth.HashPassword("timing-equalizer")

type adminUseCase struct {
	repo    admin.Repository
	tokens  *auth.TokenManager
	limiter auth.LoginLimiter
	logger  logger.ZapLogger
}

func NewAdminUseCase(repo admin.Repository, tokens *auth.TokenManager, limiter auth.LoginLimiter, log logger.ZapLogger) admin.UseCase {
	return &adminUseCase{
		repo:    repo,
		tokens:  tokens,
		limiter: limiter,
		logger:  log,
	}
}

func (uc *adminUseCase) Login(ctx context.Context, clientKey, username, password string) (*dto.Session, error) {
	wait, err := uc.limiter.Reserve(ctx, clientKey)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		uc.logger.Warn("login rate limited", zap.String("client", clientKey), zap.Duration("retry_after", wait))
		return nil, &admin.RateLimitError{RetryAfter: wait}
	}

	a, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	hash := dummyHash
	if a != nil {
		hash = a.PasswordHash
	}
	if !auth.CheckPassword(hash, password) || a == nil {
		uc.logger.Warn("login failed", zap.String("client", clientKey), zap.String("username", username))
		return nil, admin.ErrInvalidCredentials
	}

	if err := uc.limiter.Reset(ctx, clientKey); err != nil {
		uc.logger.Error("failed to reset login attempts", zap.Error(err))
	}
	if err := uc.repo.UpdateLastLogin(ctx, a.ID, time.Now().UTC()); err != nil {
		uc.logger.Error("failed to update last login", zap.String("id", a.ID), zap.Error(err))
	}

	token, expires, err := uc.tokens.Issue(a)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("admin logged in", zap.String("username", a.Username))
	return &dto.Session{
		Token:     token,
		ExpiresAt: expires,
		Admin:     dto.AdminInfo{UserID: a.ID, Username: a.Username, Name: a.Name},
	}, nil
}

func (uc *adminUseCase) CreateAdmin(ctx context.Context, username, name, password string) (*model.AdminUser, error) {
	if len(password) < minPasswordLength {
		return nil, admin.ErrWeakPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}
	a := &model.AdminUser{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, a); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, admin.ErrUsernameTaken
		}
		return nil, err
	}

	uc.logger.Info("admin created", zap.String("username", a.Username))
	return a, nil
}

func (uc *adminUseCase) ResetPassword(ctx context.Context, username, password string) error {
	if len(password) < minPasswordLength {
		return admin.ErrWeakPassword
	}
	a, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if a == nil {
		return admin.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return uc.repo.UpdatePassword(ctx, a.ID, hash)
}

// Dashboard runs every count concurrently; the first failure cancels the rest.
func (uc *adminUseCase) Dashboard(ctx context.Context) (map[string]int, error) {
	var mu sync.Mutex
	stats := make(map[string]int, len(dto.Metrics))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, metric := range dto.Metrics {
		metric := metric
		g.Go(func() error {
			n, err := uc.repo.Count(ctx, metric)
			if err != nil {
				return err
			}
			mu.Lock()
			stats[metric] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
