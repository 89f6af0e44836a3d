// Package services contains the business logic layer for the URL shortener application
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/axellelanca/shortlink/internal/config"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/qrcode"
	"github.com/axellelanca/shortlink/internal/repository"
)

// maxRetries bounds attempts with freshly generated codes when the store reports a collision.
const maxRetries = 5

// LinkService provides business logic methods for managing shortened links.
// It acts as an intermediary between the HTTP handlers and the data repository.
type LinkService struct {
	linkRepo repository.LinkRepository
	gen      CodeGenerator
	baseURL  string
	qrSize   int
	log      *slog.Logger

	renderQR func(content string, size int) (string, error)
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(linkRepo repository.LinkRepository, gen CodeGenerator, cfg *config.Config, log *slog.Logger) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		gen:      gen,
		baseURL:  strings.TrimRight(cfg.Server.BaseURL, "/"),
		qrSize:   cfg.QRCode.Size,
		log:      log,
		renderQR: qrcode.Render,
	}
}

// ShortURL is the public address of code.
func (s *LinkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// Shorten creates a link owned by owner. With a custom slug the slug becomes the code
// and a collision is reported as errors.ErrDuplicate; otherwise generated codes are
// retried on collision. The QR code is rendered before the insert so a link is either
// stored complete or not at all.
func (s *LinkService) Shorten(ctx context.Context, owner, origURL, customSlug string) (*models.Link, error) {
	if !IsValidURL(origURL) {
		return nil, apperrors.NewValidationError("origUrl", "must be an absolute http or https URL")
	}

	if customSlug = strings.TrimSpace(customSlug); customSlug != "" {
		if err := ValidateSlug(customSlug); err != nil {
			return nil, err
		}
		link, err := s.create(ctx, owner, origURL, customSlug, true)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return nil, fmt.Errorf("custom slug already taken: %w", apperrors.ErrDuplicate)
			}
			return nil, err
		}
		return link, nil
	}

	for i := 0; i < maxRetries; i++ {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		link, err := s.create(ctx, owner, origURL, code, false)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		s.log.Warn("short code collision, retrying", "code", code, "attempt", i+1, "max_attempts", maxRetries)
	}
	return nil, apperrors.ErrShortCodeGenerationFailed
}

func (s *LinkService) create(ctx context.Context, owner, origURL, code string, custom bool) (*models.Link, error) {
	qr, err := s.renderQR(s.ShortURL(code), s.qrSize)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		Code:           code,
		DestinationURL: origURL,
		OwnerUsername:  owner,
		QRCode:         qr,
	}
	if custom {
		slug := code
		link.CustomSlug = &slug
	}

	if err := s.linkRepo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	logging.URLCreated(s.log, link.Code, owner)
	return link, nil
}

// Resolve looks code up and counts one click. An unknown code returns
// errors.ErrNotFound and touches nothing. The returned link carries the count
// produced by this resolve.
func (s *LinkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	count, err := s.linkRepo.IncrementClicks(ctx, code)
	if err != nil {
		return nil, err
	}
	link.ClickCount = count

	logging.URLAccessed(s.log, code, count)
	return link, nil
}

// Stats returns the link without counting a click.
func (s *LinkService) Stats(ctx context.Context, code string) (*models.Link, error) {
	return s.linkRepo.GetLinkByCode(ctx, code)
}

// ListByOwner returns every link created by owner, oldest first.
func (s *LinkService) ListByOwner(ctx context.Context, owner string) ([]models.Link, error) {
	return s.linkRepo.ListLinksByOwner(ctx, owner)
}
