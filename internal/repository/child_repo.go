package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"routineboard/internal/database"
	"routineboard/internal/models"
)

// ChildRepository handles database operations for child profiles
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

const childColumns = "c.id, c.family_id, c.name, c.avatar_color, c.pin_hash, c.created_at, c.updated_at"

func scanChild(row interface{ Scan(...any) error }, child *models.ChildProfile) error {
	return row.Scan(
		&child.ID,
		&child.FamilyID,
		&child.Name,
		&child.AvatarColor,
		&child.PINHash,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
}

// GetChildByID retrieves a child profile by ID
func (r *ChildRepository) GetChildByID(ctx context.Context, childID string) (*models.ChildProfile, error) {
	query := "SELECT " + childColumns + " FROM child_profiles c WHERE c.id = ?"
	child := &models.ChildProfile{}
	err := scanChild(r.db.QueryRowContext(ctx, query, childID), child)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetChildWithFamily retrieves a child together with its family settings
func (r *ChildRepository) GetChildWithFamily(ctx context.Context, childID string) (*models.ChildWithFamily, error) {
	query := `
		SELECT ` + childColumns + `, ` + familyColumns + `
		FROM child_profiles c
		JOIN families f ON f.id = c.family_id
		WHERE c.id = ?
	`
	var out models.ChildWithFamily
	var notify sql.NullString
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&out.Child.ID,
		&out.Child.FamilyID,
		&out.Child.Name,
		&out.Child.AvatarColor,
		&out.Child.PINHash,
		&out.Child.CreatedAt,
		&out.Child.UpdatedAt,
		&out.Family.ID,
		&out.Family.Name,
		&out.Family.Timezone,
		&notify,
		&out.Family.CreatedAt,
		&out.Family.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child with family: %w", err)
	}
	out.Family.NotifyEmail = notify.String
	return &out, nil
}

// ListFamilyChildren retrieves all children in a family
func (r *ChildRepository) ListFamilyChildren(ctx context.Context, familyID string) ([]models.ChildProfile, error) {
	query := "SELECT " + childColumns + " FROM child_profiles c WHERE c.family_id = ? ORDER BY c.name ASC"
	return r.list(ctx, query, familyID)
}

// ListAllChildren retrieves every child profile across families
func (r *ChildRepository) ListAllChildren(ctx context.Context) ([]models.ChildProfile, error) {
	query := "SELECT " + childColumns + " FROM child_profiles c ORDER BY c.family_id, c.name"
	return r.list(ctx, query)
}

func (r *ChildRepository) list(ctx context.Context, query string, args ...any) ([]models.ChildProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.ChildProfile
	for rows.Next() {
		var child models.ChildProfile
		if err := scanChild(rows, &child); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

// UpsertChild creates the child profile or updates its name, color and PIN hash
func (r *ChildRepository) UpsertChild(ctx context.Context, child *models.ChildProfile) error {
	now := time.Now().UTC()

	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM child_profiles WHERE id = ?", child.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check child: %w", err)
	}

	if exists > 0 {
		query := "UPDATE child_profiles SET family_id = ?, name = ?, avatar_color = ?, pin_hash = ?, updated_at = ? WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, query, child.FamilyID, child.Name, child.AvatarColor, child.PINHash, now, child.ID); err != nil {
			return fmt.Errorf("failed to update child: %w", err)
		}
		child.UpdatedAt = now
		return nil
	}

	query := `
		INSERT INTO child_profiles (id, family_id, name, avatar_color, pin_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, child.ID, child.FamilyID, child.Name, child.AvatarColor, child.PINHash, now, now); err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	child.CreatedAt = now
	child.UpdatedAt = now
	return nil
}
