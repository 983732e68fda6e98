package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// CATEGORY STORE (ledger.CategoryStore interface)
// =============================================================================

const categoryColumns = `c.id, c.user_id, c.name, c.type, c.color, c.icon, c.created_at, c.updated_at`

func (q *queries) CreateCategory(ctx context.Context, p ledger.CreateCategoryParams) (*ledger.Category, error) {
	id := uuid.NewString()
	now := formatTime(q.now())

	_, err := q.exec(ctx, `
		INSERT INTO categories (id, user_id, name, type, color, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.UserID, p.Name, string(p.Type), nullable(p.Color), nullable(p.Icon), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	c, err := q.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ledger.PersistenceError{Op: "create category", ID: id}
	}
	return c, nil
}

func (q *queries) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	c, err := scanCategory(q.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindCategoryByName returns the oldest category with this exact name for
// the user, if any.
func (q *queries) FindCategoryByName(ctx context.Context, userID, name string) (*ledger.Category, error) {
	c, err := scanCategory(q.queryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories c
		WHERE c.user_id = ? AND c.name = ?
		ORDER BY c.created_at
		LIMIT 1
	`, userID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (q *queries) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	return q.listCategories(ctx, `SELECT `+categoryColumns+` FROM categories c ORDER BY c.name`)
}

func (q *queries) ListCategoriesByUser(ctx context.Context, userID string) ([]ledger.Category, error) {
	return q.listCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories c
		WHERE c.user_id = ?
		ORDER BY c.name
	`, userID)
}

func (q *queries) ListCategoriesByUserAndType(ctx context.Context, userID string, t ledger.TransactionType) ([]ledger.Category, error) {
	return q.listCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories c
		WHERE c.user_id = ? AND c.type = ?
		ORDER BY c.name
	`, userID, string(t))
}

// UpdateCategory merges the present fields of p. It returns nil for an
// unknown id; an empty p is a read-through.
func (q *queries) UpdateCategory(ctx context.Context, id string, p ledger.UpdateCategoryParams) (*ledger.Category, error) {
	if p.IsEmpty() {
		return q.GetCategory(ctx, id)
	}

	var set setClause
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.Type != nil {
		set.add("type", string(*p.Type))
	}
	if p.Color != nil {
		set.add("color", nullable(p.Color))
	}
	if p.Icon != nil {
		set.add("icon", nullable(p.Icon))
	}
	set.add("updated_at", formatTime(q.now()))

	result, err := q.exec(ctx, `UPDATE categories SET `+set.String()+` WHERE id = ?`,
		append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return q.GetCategory(ctx, id)
}

// DeleteCategory removes the category. Transactions keep their rows with
// category_id set to NULL.
func (q *queries) DeleteCategory(ctx context.Context, id string) (bool, error) {
	result, err := q.exec(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (q *queries) listCategories(ctx context.Context, query string, args ...any) ([]ledger.Category, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []ledger.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func scanCategory(s scanner) (*ledger.Category, error) {
	var (
		c                    ledger.Category
		typ                  string
		color, icon          sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &color, &icon, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Type = ledger.TransactionType(typ)
	c.Color = ptr(color)
	c.Icon = ptr(icon)

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
