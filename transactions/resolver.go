package transactions

import (
	"context"
	"fmt"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// CATEGORY RESOLVER - Turns a category id or name into a stored id
// =============================================================================

// categoryIntent is what the caller said about the category. A non-empty ID
// wins over Name. An empty ID with no Name means "uncategorised".
type categoryIntent struct {
	ID   *string
	Name *string
}

func (i categoryIntent) isSet() bool {
	return i.ID != nil || i.Name != nil
}

type categoryResolution struct {
	ID      *string          // nil or "" stores NULL
	Created *ledger.Category // set when the name was new for the owner
}

// resolveCategory maps intent to a category id for ownerID:
//   - explicit id: must exist, never creates
//   - name: reuse the owner's category with that exact name, else create one
//     typed txType
//   - empty id and no name: uncategorised
//   - neither: nothing to resolve
//
// At most one category is created per call. Run it with the same store
// that persists the transaction so a failed insert leaves no orphan.
func resolveCategory(
	ctx context.Context,
	store ledger.CategoryStore,
	ownerID string,
	intent categoryIntent,
	txType ledger.TransactionType,
) (categoryResolution, error) {
	if intent.ID != nil && *intent.ID != "" {
		c, err := store.GetCategory(ctx, *intent.ID)
		if err != nil {
			return categoryResolution{}, fmt.Errorf("failed to load category: %w", err)
		}
		if c == nil {
			return categoryResolution{}, &ledger.NotFoundError{Resource: ledger.ErrCategoryNotFound, ID: *intent.ID}
		}
		return categoryResolution{ID: &c.ID}, nil
	}

	if intent.Name == nil {
		return categoryResolution{ID: intent.ID}, nil
	}

	existing, err := store.FindCategoryByName(ctx, ownerID, *intent.Name)
	if err != nil {
		return categoryResolution{}, fmt.Errorf("failed to look up category: %w", err)
	}
	if existing != nil {
		return categoryResolution{ID: &existing.ID}, nil
	}

	created, err := store.CreateCategory(ctx, ledger.CreateCategoryParams{
		UserID: ownerID,
		Name:   *intent.Name,
		Type:   txType,
	})
	if err != nil {
		return categoryResolution{}, fmt.Errorf("failed to create category: %w", err)
	}
	return categoryResolution{ID: &created.ID, Created: created}, nil
}
