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

// FamilyRepository handles database operations for families
type FamilyRepository struct {
	db database.DBTX
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db database.DBTX) *FamilyRepository {
	return &FamilyRepository{db: db}
}

const familyColumns = "f.id, f.name, f.timezone, f.notify_email, f.created_at, f.updated_at"

func scanFamily(row interface{ Scan(...any) error }) (*models.Family, error) {
	family := &models.Family{}
	var notify sql.NullString
	if err := row.Scan(
		&family.ID,
		&family.Name,
		&family.Timezone,
		&notify,
		&family.CreatedAt,
		&family.UpdatedAt,
	); err != nil {
		return nil, err
	}
	family.NotifyEmail = notify.String
	return family, nil
}

// GetFamilyByID retrieves a family by ID
func (r *FamilyRepository) GetFamilyByID(ctx context.Context, familyID string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families f WHERE f.id = ?"
	family, err := scanFamily(r.db.QueryRowContext(ctx, query, familyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetFamilyForChild retrieves the family a child profile belongs to
func (r *FamilyRepository) GetFamilyForChild(ctx context.Context, childID string) (*models.Family, error) {
	query := `
		SELECT ` + familyColumns + `
		FROM families f
		JOIN child_profiles c ON c.family_id = f.id
		WHERE c.id = ?
	`
	family, err := scanFamily(r.db.QueryRowContext(ctx, query, childID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family for child: %w", err)
	}
	return family, nil
}

// UpsertFamily creates the family or updates its name, timezone and notification address
func (r *FamilyRepository) UpsertFamily(ctx context.Context, family *models.Family) error {
	now := time.Now().UTC()

	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM families WHERE id = ?", family.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check family: %w", err)
	}

	if exists > 0 {
		query := "UPDATE families SET name = ?, timezone = ?, notify_email = ?, updated_at = ? WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, query, family.Name, family.Timezone, nullString(family.NotifyEmail), now, family.ID); err != nil {
			return fmt.Errorf("failed to update family: %w", err)
		}
		family.UpdatedAt = now
		return nil
	}

	query := "INSERT INTO families (id, name, timezone, notify_email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, family.ID, family.Name, family.Timezone, nullString(family.NotifyEmail), now, now); err != nil {
		return fmt.Errorf("failed to create family: %w", err)
	}
	family.CreatedAt = now
	family.UpdatedAt = now
	return nil
}
