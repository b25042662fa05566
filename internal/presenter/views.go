// Package presenter maps entities to the JSON shapes returned to clients.
// There is one builder per (entity, shape); requester-relative flags are
// passed in explicitly.
package presenter

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// Viewer is the identity a representation is built for. The zero value is an
// anonymous requester, for whom every flag is false.
type Viewer struct {
	UserID uint
}

// Anonymous reports whether the viewer is not logged in.
func (v Viewer) Anonymous() bool {
	return v.UserID == 0
}

type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientView is an ingredient line of a recipe.
type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// CreatedUserView is returned by registration and has no flags.
type CreatedUserView struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []TagView              `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeSummaryView is the short form used by favorites, the cart and
// subscription previews.
type RecipeSummaryView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is an author as seen from the follower's subscription list.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeSummaryView `json:"recipes"`
	RecipesCount int64               `json:"recipes_count"`
}

// RecipeFlags are the viewer-relative flags of one recipe.
type RecipeFlags struct {
	Favorited        bool
	InShoppingCart   bool
	AuthorSubscribed bool
}

func Tag(t models.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func Tags(tags []models.Tag) []TagView {
	out := make([]TagView, len(tags))
	for i, t := range tags {
		out[i] = Tag(t)
	}
	return out
}

func Ingredient(i models.Ingredient) IngredientView {
	return IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func Ingredients(list []models.Ingredient) []IngredientView {
	out := make([]IngredientView, len(list))
	for i, ing := range list {
		out[i] = Ingredient(ing)
	}
	return out
}

func User(u models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func CreatedUser(u models.User) CreatedUserView {
	return CreatedUserView{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Recipe expects Author, Tags and Ingredients.Ingredient to be loaded.
func Recipe(r models.Recipe, flags RecipeFlags) RecipeView {
	ingredients := make([]RecipeIngredientView, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		ingredients[i] = RecipeIngredientView{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		}
	}
	return RecipeView{
		ID:               r.ID,
		Tags:             Tags(r.Tags),
		Author:           User(r.Author, flags.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      flags.Favorited,
		IsInShoppingCart: flags.InShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func RecipeSummary(r models.Recipe) RecipeSummaryView {
	return RecipeSummaryView{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func Subscription(author models.User, subscribed bool, recipes []models.Recipe, count int64) SubscriptionView {
	previews := make([]RecipeSummaryView, len(recipes))
	for i, r := range recipes {
		previews[i] = RecipeSummary(r)
	}
	return SubscriptionView{
		UserView:     User(author, subscribed),
		Recipes:      previews,
		RecipesCount: count,
	}
}
