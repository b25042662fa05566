package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// CatalogService serves the static tag and ingredient reference data.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListTags returns every tag ordered by name.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// GetTag retrieves a tag by ID
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Tag not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading tag: %w", err)
	}
	return &tag, nil
}

// ListIngredients returns the ingredients whose name starts with prefix,
// ignoring case. An empty prefix matches everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient retrieves an ingredient by ID
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Ingredient not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading ingredient: %w", err)
	}
	return &ingredient, nil
}

// TagInput is one tag of a seed file.
type TagInput struct {
	Name  string `json:"name" yaml:"name" validate:"required,max=200"`
	Color string `json:"color" yaml:"color" validate:"required,hexcolor6"`
	Slug  string `json:"slug" yaml:"slug" validate:"required,max=200,slug"`
}

// IngredientInput is one ingredient of a seed file.
type IngredientInput struct {
	Name            string `json:"name" yaml:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit" validate:"required,max=200"`
}

// ImportTags inserts the tags that do not exist yet and returns how many were added.
func (s *CatalogService) ImportTags(ctx context.Context, in []TagInput) (int64, error) {
	if len(in) == 0 {
		return 0, nil
	}
	tags := make([]models.Tag, len(in))
	for i, t := range in {
		if err := validate(t); err != nil {
			return 0, fmt.Errorf("tag %d (%s): %w", i, t.Slug, err)
		}
		tags[i] = models.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug}
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	if res.Error != nil {
		return 0, fmt.Errorf("importing tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ImportIngredients inserts the ingredients that do not exist yet, in batches,
// and returns how many were added.
func (s *CatalogService) ImportIngredients(ctx context.Context, in []IngredientInput) (int64, error) {
	if len(in) == 0 {
		return 0, nil
	}
	ingredients := make([]models.Ingredient, len(in))
	for i, ing := range in {
		if err := validate(ing); err != nil {
			return 0, fmt.Errorf("ingredient %d (%s): %w", i, ing.Name, err)
		}
		ingredients[i] = models.Ingredient{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("importing ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
