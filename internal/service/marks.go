package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
)

// Marks answers the requester-relative flags of the presentation layer in
// batch, one query per relation.
type Marks struct {
	Favorites     *Relation[models.Favorite]
	Cart          *Relation[models.ShoppingCartItem]
	Subscriptions *Relation[models.Subscription]
}

func (m *Marks) FavoritedRecipes(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return m.Favorites.Existing(ctx, userID, recipeIDs)
}

func (m *Marks) CartRecipes(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return m.Cart.Existing(ctx, userID, recipeIDs)
}

func (m *Marks) SubscribedAuthors(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	return m.Subscriptions.Existing(ctx, userID, authorIDs)
}
