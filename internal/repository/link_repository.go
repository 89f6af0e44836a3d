package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/models"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données des liens.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *models.Link) error
	GetLinkByCode(ctx context.Context, code string) (*models.Link, error)
	IncrementClicks(ctx context.Context, code string) (int64, error)
	ListLinksByOwner(ctx context.Context, username string) ([]models.Link, error)
	GetAllLinks(ctx context.Context) ([]models.Link, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien. A taken code or slug yields errors.ErrDuplicate
// and leaves the table untouched.
func (r *GormLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error
	if err != nil {
		if err = translateError(err); errors.Is(err, apperrors.ErrDuplicate) {
			return fmt.Errorf("code %q: %w", link.Code, err)
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByCode récupère un lien en utilisant son code.
func (r *GormLinkRepository) GetLinkByCode(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, translateError(err)
	}
	return &link, nil
}

// IncrementClicks adds one click in a single-row UPDATE and returns the count this
// increment produced. The read happens in the same transaction, so concurrent
// resolves of one code each observe a distinct, strictly increasing value.
func (r *GormLinkRepository) IncrementClicks(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).
			Where("code = ?", code).
			UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return tx.Model(&models.Link{}).
			Where("code = ?", code).
			Select("click_count").
			Scan(&count).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to increment clicks for %q: %w", code, err)
	}
	return count, nil
}

// ListLinksByOwner returns the links of one user in creation order.
func (r *GormLinkRepository) ListLinksByOwner(ctx context.Context, username string) ([]models.Link, error) {
	links := []models.Link{}
	err := r.db.WithContext(ctx).
		Where("owner_username = ?", username).
		Order("created_at ASC, id ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links of %q: %w", username, err)
	}
	return links, nil
}

// GetAllLinks récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}
