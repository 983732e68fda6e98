package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// CATEGORY CRUD - (user_id, name) is unique per user
// =============================================================================

func (s *Service) CreateCategory(ctx context.Context, p ledger.CreateCategoryParams) (*ledger.Category, error) {
	if err := validateCategory(&p.Name, &p.Type, p.Color, p.Icon); err != nil {
		return nil, s.rejected(ctx, "create category", err)
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, s.rejected(ctx, "create category", ledger.Invalid("user_id", ledger.ErrEmptyName))
	}
	p.Color = normalizeColor(p.Color)

	var created *ledger.Category
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		existing, err := tx.FindCategoryByName(ctx, p.UserID, p.Name)
		if err != nil {
			return fmt.Errorf("failed to look up category: %w", err)
		}
		if existing != nil {
			return &ledger.DuplicateCategoryError{UserID: p.UserID, Name: p.Name, ExistingID: existing.ID}
		}
		created, err = tx.CreateCategory(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetCategory returns nil when absent.
func (s *Service) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) ListCategoriesByUser(ctx context.Context, userID string) ([]ledger.Category, error) {
	return s.store.ListCategoriesByUser(ctx, userID)
}

func (s *Service) ListCategoriesByUserAndType(ctx context.Context, userID string, t ledger.TransactionType) ([]ledger.Category, error) {
	if err := ledger.ValidateTransactionType(t); err != nil {
		return nil, s.rejected(ctx, "list categories", err)
	}
	return s.store.ListCategoriesByUserAndType(ctx, userID, t)
}

// UpdateCategory fails with ErrCategoryNotFound for an unknown id and with
// ErrDuplicateCategory when renaming onto another category of the same user.
func (s *Service) UpdateCategory(ctx context.Context, id string, p ledger.UpdateCategoryParams) (*ledger.Category, error) {
	if err := validateCategory(p.Name, p.Type, p.Color, p.Icon); err != nil {
		return nil, s.rejected(ctx, "update category", err)
	}
	p.Color = normalizeColor(p.Color)

	var updated *ledger.Category
	err := s.store.WithTx(ctx, func(tx ledger.Store) error {
		existing, err := tx.GetCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load category: %w", err)
		}
		if existing == nil {
			return &ledger.NotFoundError{Resource: ledger.ErrCategoryNotFound, ID: id}
		}

		if p.Name != nil && *p.Name != existing.Name {
			clash, err := tx.FindCategoryByName(ctx, existing.UserID, *p.Name)
			if err != nil {
				return fmt.Errorf("failed to look up category: %w", err)
			}
			if clash != nil && clash.ID != id {
				return &ledger.DuplicateCategoryError{UserID: existing.UserID, Name: *p.Name, ExistingID: clash.ID}
			}
		}

		updated, err = tx.UpdateCategory(ctx, id, p)
		if err != nil {
			return err
		}
		if updated == nil {
			return &ledger.NotFoundError{Resource: ledger.ErrCategoryNotFound, ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory returns false when absent. Transactions that referenced
// the category become uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.InfoContext(ctx, "category deleted", "category_id", id)
	}
	return deleted, nil
}

// validateCategory checks the non-nil fields.
func validateCategory(name *string, t *ledger.TransactionType, color, icon *string) error {
	if name != nil {
		if err := ledger.ValidateCategoryName(*name); err != nil {
			return err
		}
	}
	if t != nil {
		if err := ledger.ValidateTransactionType(*t); err != nil {
			return err
		}
	}
	if color != nil && *color != "" {
		if err := ledger.ValidateColor(*color); err != nil {
			return err
		}
	}
	if icon != nil {
		if err := ledger.ValidateIcon(*icon); err != nil {
			return err
		}
	}
	return nil
}

func normalizeColor(color *string) *string {
	if color == nil || *color == "" {
		return color
	}
	c := ledger.NormalizeColor(*color)
	return &c
}
