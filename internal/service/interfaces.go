package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, actorID, recipeID uint, in RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, actorID, recipeID uint) error
	Get(ctx context.Context, id uint) (*models.Recipe, error)
	List(ctx context.Context, f RecipeFilter, page Page) ([]models.Recipe, int64, error)
	AuthorRecipes(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error)
}

// IUserService defines the interface for account and subscription operations
type IUserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, page Page) ([]models.User, int64, error)
	SetPassword(ctx context.Context, userID uint, in SetPasswordInput) error
	Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, page Page) ([]models.User, int64, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, in LoginInput) (string, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	Logout(ctx context.Context, claims *TokenClaims) error
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IShoppingListService defines the interface for shopping list export
type IShoppingListService interface {
	Export(ctx context.Context, userID uint) (string, error)
}

// IRelation is the user-facing side of a marker relation.
type IRelation interface {
	Name() string
	Add(ctx context.Context, userID, targetID uint) error
	Remove(ctx context.Context, userID, targetID uint) error
}

var (
	_ IRecipeService       = (*RecipeService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ IAuthService         = (*AuthService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ IRelation            = (*Relation[models.Favorite])(nil)
)
