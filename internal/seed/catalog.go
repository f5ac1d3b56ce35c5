// Package seed loads families, children and their routines from a YAML
// catalog file into the database.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"routineboard/internal/credentials"
	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/repository"
	"routineboard/internal/security"
	"routineboard/internal/validation"
)

// Catalog is the top-level document of a seed file
type Catalog struct {
	Families     []Family             `yaml:"families"`
	Achievements []models.Achievement `yaml:"achievements"`
}

type Family struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Timezone    string  `yaml:"timezone"`
	NotifyEmail string  `yaml:"notify_email"`
	Children    []Child `yaml:"children"`
}

type Child struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	AvatarColor string    `yaml:"avatar_color"`
	PIN         string    `yaml:"pin"`
	Routines    []Routine `yaml:"routines"`
}

type Routine struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Active *bool  `yaml:"active"`
	Tasks  []Task `yaml:"tasks"`
}

type Task struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Points          int    `yaml:"points"`
	DurationSeconds *int   `yaml:"duration_seconds"`
	Optional        bool   `yaml:"optional"`
}

// LoadCatalog reads and validates a catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate reports every invalid entry, prefixed with its location in the file
func (c *Catalog) Validate() error {
	var errs []error
	check := func(path string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	for i, f := range c.Families {
		fp := fmt.Sprintf("families[%d]", i)
		check(fp, validation.ValidateName("name", f.Name))
		check(fp, validation.ValidateTimezone(f.Timezone))
		if f.NotifyEmail != "" {
			check(fp, validation.ValidateEmail(f.NotifyEmail))
		}

		for j, ch := range f.Children {
			cp := fmt.Sprintf("%s.children[%d]", fp, j)
			check(cp, validation.ValidateName("name", ch.Name))
			check(cp, validation.ValidateAvatarColor(ch.AvatarColor))
			if ch.PIN != "" {
				check(cp, security.ValidatePIN(ch.PIN))
			}

			for k, r := range ch.Routines {
				rp := fmt.Sprintf("%s.routines[%d]", cp, k)
				check(rp, validation.ValidateName("name", r.Name))
				check(rp, validation.ValidateWindow(r.Start, r.End))
				for l, t := range r.Tasks {
					tp := fmt.Sprintf("%s.tasks[%d]", rp, l)
					check(tp, validation.ValidateName("title", t.Title))
					check(tp, validation.ValidatePoints(t.Points))
					if t.DurationSeconds != nil && *t.DurationSeconds < 0 {
						check(tp, validation.ValidationError{Field: "duration_seconds", Message: "duration must not be negative"})
					}
				}
			}
		}
	}

	for i, a := range c.Achievements {
		ap := fmt.Sprintf("achievements[%d]", i)
		if strings.TrimSpace(a.Code) == "" {
			check(ap, validation.ValidationError{Field: "code", Message: "code is required"})
		}
		check(ap, validation.ValidateName("name", a.Name))
	}

	return errors.Join(errs...)
}

// GeneratedPIN is a PIN created for a child the catalog left without one
type GeneratedPIN struct {
	ChildID string
	Name    string
	PIN     string
}

// Result summarizes an applied catalog
type Result struct {
	Families     int
	Children     int
	Routines     int
	Achievements int
	PINs         []GeneratedPIN
}

// Apply writes the catalog in one transaction. Missing ids are generated, and
// children without a PIN keep their stored one or get a fresh PIN.
func Apply(ctx context.Context, db *database.DB, catalog *Catalog) (*Result, error) {
	result := &Result{}
	err := db.WithTx(ctx, func(tx *database.Tx) error {
		families := repository.NewFamilyRepository(tx)
		children := repository.NewChildRepository(tx)
		routines := repository.NewRoutineRepository(tx)
		achievements := repository.NewAchievementRepository(tx)

		for i := range catalog.Achievements {
			if err := achievements.UpsertAchievement(ctx, &catalog.Achievements[i]); err != nil {
				return err
			}
			result.Achievements++
		}

		for _, f := range catalog.Families {
			family := &models.Family{
				ID:          orNewID(f.ID),
				Name:        strings.TrimSpace(f.Name),
				Timezone:    f.Timezone,
				NotifyEmail: f.NotifyEmail,
			}
			if err := families.UpsertFamily(ctx, family); err != nil {
				return err
			}
			result.Families++

			for _, c := range f.Children {
				child, generated, err := buildChild(ctx, children, family.ID, c)
				if err != nil {
					return err
				}
				if err := children.UpsertChild(ctx, child); err != nil {
					return err
				}
				if generated != "" {
					result.PINs = append(result.PINs, GeneratedPIN{ChildID: child.ID, Name: child.Name, PIN: generated})
				}
				result.Children++

				for _, r := range c.Routines {
					if err := routines.UpsertRoutine(ctx, buildRoutine(family.ID, child.ID, r)); err != nil {
						return err
					}
					result.Routines++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("families", result.Families).
		Int("children", result.Children).
		Int("routines", result.Routines).
		Int("achievements", result.Achievements).
		Msg("Catalog applied")
	return result, nil
}

func buildChild(ctx context.Context, children *repository.ChildRepository, familyID string, c Child) (*models.ChildProfile, string, error) {
	child := &models.ChildProfile{
		ID:          orNewID(c.ID),
		FamilyID:    familyID,
		Name:        strings.TrimSpace(c.Name),
		AvatarColor: c.AvatarColor,
	}

	var existing *models.ChildProfile
	if c.ID != "" {
		var err error
		if existing, err = children.GetChildByID(ctx, c.ID); err != nil {
			return nil, "", err
		}
	}

	if child.AvatarColor == "" {
		if existing != nil {
			child.AvatarColor = existing.AvatarColor
		} else {
			color, err := credentials.PickAvatarColor()
			if err != nil {
				return nil, "", fmt.Errorf("failed to pick avatar color: %w", err)
			}
			child.AvatarColor = color
		}
	}

	pin, generated := c.PIN, ""
	if pin == "" {
		if existing != nil && existing.PINHash != "" {
			child.PINHash = existing.PINHash
			return child, "", nil
		}
		var err error
		if pin, err = credentials.GenerateKidPIN(); err != nil {
			return nil, "", fmt.Errorf("failed to generate PIN: %w", err)
		}
		generated = pin
	}

	hash, err := security.HashPIN(pin)
	if err != nil {
		return nil, "", err
	}
	child.PINHash = hash
	return child, generated, nil
}

func buildRoutine(familyID, childID string, r Routine) *models.Routine {
	routine := &models.Routine{
		ID:             orNewID(r.ID),
		FamilyID:       familyID,
		ChildProfileID: childID,
		Name:           strings.TrimSpace(r.Name),
		StartTime:      r.Start,
		EndTime:        r.End,
		Active:         r.Active == nil || *r.Active,
	}
	for i, t := range r.Tasks {
		task := models.RoutineTask{
			ID:              orNewID(t.ID),
			RoutineID:       routine.ID,
			Position:        i,
			Title:           strings.TrimSpace(t.Title),
			Points:          t.Points,
			DurationSeconds: t.DurationSeconds,
			IsOptional:      t.Optional,
		}
		if t.Description != "" {
			description := t.Description
			task.Description = &description
		}
		routine.Tasks = append(routine.Tasks, task)
	}
	return routine
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
