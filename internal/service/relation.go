package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RelationOptions describe one marker relation.
type RelationOptions[M any] struct {
	// Name labels metrics and log lines ("favorite", "shopping_cart", "subscription").
	Name string
	// TargetColumn is the marker column holding the target id.
	TargetColumn string
	// Target is a pointer to the target model, used for existence checks.
	Target any
	// New builds the marker row for a (user, target) pair.
	New func(userID, targetID uint) M

	// RejectSelf forbids user == target.
	RejectSelf bool

	DuplicateMessage string
	MissingMessage   string
	TargetMessage    string
	SelfMessage      string
}

// Relation is an add/remove/exists toggle over a marker table whose rows are
// unique per (user_id, target). The unique index decides duplicates, so
// concurrent adds of the same pair yield exactly one row and one Conflict.
type Relation[M any] struct {
	db   *gorm.DB
	opts RelationOptions[M]
}

// NewRelation creates a relation toggle over the marker type M.
func NewRelation[M any](db *gorm.DB, opts RelationOptions[M]) *Relation[M] {
	return &Relation[M]{db: db, opts: opts}
}

// NewFavorites toggles a user's favorite recipes.
func NewFavorites(db *gorm.DB) *Relation[models.Favorite] {
	return NewRelation(db, RelationOptions[models.Favorite]{
		Name:         "favorite",
		TargetColumn: "recipe_id",
		Target:       &models.Recipe{},
		New: func(userID, recipeID uint) models.Favorite {
			return models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		DuplicateMessage: "Recipe is already in favorites.",
		MissingMessage:   "Recipe is not in favorites.",
		TargetMessage:    "Recipe not found.",
	})
}

// NewShoppingCart toggles the recipes in a user's shopping cart.
func NewShoppingCart(db *gorm.DB) *Relation[models.ShoppingCartItem] {
	return NewRelation(db, RelationOptions[models.ShoppingCartItem]{
		Name:         "shopping_cart",
		TargetColumn: "recipe_id",
		Target:       &models.Recipe{},
		New: func(userID, recipeID uint) models.ShoppingCartItem {
			return models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
		DuplicateMessage: "Recipe is already in the shopping list.",
		MissingMessage:   "Recipe is not in the shopping list.",
		TargetMessage:    "Recipe not found.",
	})
}

// NewSubscriptions toggles which authors a user follows.
func NewSubscriptions(db *gorm.DB) *Relation[models.Subscription] {
	return NewRelation(db, RelationOptions[models.Subscription]{
		Name:         "subscription",
		TargetColumn: "author_id",
		Target:       &models.User{},
		New: func(userID, authorID uint) models.Subscription {
			return models.Subscription{UserID: userID, AuthorID: authorID}
		},
		RejectSelf:       true,
		DuplicateMessage: "You are already subscribed to this author.",
		MissingMessage:   "You are not subscribed to this author.",
		TargetMessage:    "User not found.",
		SelfMessage:      "You cannot subscribe to yourself.",
	})
}

// Name returns the relation label.
func (r *Relation[M]) Name() string {
	return r.opts.Name
}

// Add creates the (user, target) marker.
func (r *Relation[M]) Add(ctx context.Context, userID, targetID uint) error {
	err := r.add(ctx, userID, targetID)
	metrics.RecordRelationToggle(r.opts.Name, metrics.ActionAdd, err)
	return err
}

func (r *Relation[M]) add(ctx context.Context, userID, targetID uint) error {
	if r.opts.RejectSelf && userID == targetID {
		return InvalidRequest(r.opts.SelfMessage)
	}

	db := r.db.WithContext(ctx)

	var n int64
	if err := db.Model(r.opts.Target).Where("id = ?", targetID).Count(&n).Error; err != nil {
		return fmt.Errorf("checking %s target: %w", r.opts.Name, err)
	}
	if n == 0 {
		return NotFound(r.opts.TargetMessage)
	}

	marker := r.opts.New(userID, targetID)
	err := db.Omit(clause.Associations).Create(&marker).Error
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return Conflict(r.opts.DuplicateMessage)
	case r.opts.RejectSelf && database.IsCheckViolation(err):
		return InvalidRequest(r.opts.SelfMessage)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// target deleted between the check and the insert
		return NotFound(r.opts.TargetMessage)
	default:
		return fmt.Errorf("adding %s: %w", r.opts.Name, err)
	}
}

// Remove deletes the (user, target) marker in one statement.
func (r *Relation[M]) Remove(ctx context.Context, userID, targetID uint) error {
	err := r.remove(ctx, userID, targetID)
	metrics.RecordRelationToggle(r.opts.Name, metrics.ActionRemove, err)
	return err
}

func (r *Relation[M]) remove(ctx context.Context, userID, targetID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND "+r.opts.TargetColumn+" = ?", userID, targetID).
		Delete(new(M))
	if res.Error != nil {
		return fmt.Errorf("removing %s: %w", r.opts.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound(r.opts.MissingMessage)
	}
	return nil
}

// Exists reports whether the (user, target) marker is present. Anonymous users
// (id 0) have no markers.
func (r *Relation[M]) Exists(ctx context.Context, userID, targetID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(new(M)).
		Where("user_id = ? AND "+r.opts.TargetColumn+" = ?", userID, targetID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", r.opts.Name, err)
	}
	return n > 0, nil
}

// Existing returns the subset of targetIDs marked by the user, in one query.
func (r *Relation[M]) Existing(ctx context.Context, userID uint, targetIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(new(M)).
		Where("user_id = ? AND "+r.opts.TargetColumn+" IN ?", userID, targetIDs).
		Pluck(r.opts.TargetColumn, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("loading %s markers: %w", r.opts.Name, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// TargetIDs is a sub-query selecting every target the user marked.
func (r *Relation[M]) TargetIDs(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(M)).
		Select(r.opts.TargetColumn).
		Where("user_id = ?", userID)
}
