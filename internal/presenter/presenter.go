package presenter

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
)

// Marks answers "does the viewer have this marker" for a batch of targets.
type Marks interface {
	FavoritedRecipes(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	CartRecipes(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	SubscribedAuthors(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
}

// RecipePreviews loads the newest recipes and the recipe count of authors.
type RecipePreviews interface {
	AuthorRecipes(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error)
}

// Presenter builds viewer-relative representations of lists, computing each
// kind of flag with one batched lookup.
type Presenter struct {
	marks    Marks
	previews RecipePreviews
}

func New(marks Marks, previews RecipePreviews) *Presenter {
	return &Presenter{marks: marks, previews: previews}
}

// Recipes builds full recipe representations.
func (p *Presenter) Recipes(ctx context.Context, viewer Viewer, recipes []models.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	var favorited, inCart, subscribed map[uint]bool
	if !viewer.Anonymous() {
		recipeIDs := make([]uint, len(recipes))
		authorIDs := make([]uint, 0, len(recipes))
		for i, r := range recipes {
			recipeIDs[i] = r.ID
			authorIDs = append(authorIDs, r.AuthorID)
		}

		var err error
		if favorited, err = p.marks.FavoritedRecipes(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = p.marks.CartRecipes(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = p.marks.SubscribedAuthors(ctx, viewer.UserID, uniq(authorIDs)); err != nil {
			return nil, err
		}
	}

	for i, r := range recipes {
		out[i] = Recipe(r, RecipeFlags{
			Favorited:        favorited[r.ID],
			InShoppingCart:   inCart[r.ID],
			AuthorSubscribed: subscribed[r.AuthorID],
		})
	}
	return out, nil
}

// RecipeFor builds one full recipe representation.
func (p *Presenter) RecipeFor(ctx context.Context, viewer Viewer, recipe models.Recipe) (RecipeView, error) {
	views, err := p.Recipes(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return RecipeView{}, err
	}
	return views[0], nil
}

// Users builds user representations with is_subscribed.
func (p *Presenter) Users(ctx context.Context, viewer Viewer, users []models.User) ([]UserView, error) {
	subscribed, err := p.subscribed(ctx, viewer, users)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, len(users))
	for i, u := range users {
		out[i] = User(u, subscribed[u.ID])
	}
	return out, nil
}

// UserFor builds one user representation.
func (p *Presenter) UserFor(ctx context.Context, viewer Viewer, user models.User) (UserView, error) {
	views, err := p.Users(ctx, viewer, []models.User{user})
	if err != nil {
		return UserView{}, err
	}
	return views[0], nil
}

// Subscriptions builds subscription representations with at most
// recipesLimit recipe previews per author (all when recipesLimit < 0).
func (p *Presenter) Subscriptions(ctx context.Context, viewer Viewer, authors []models.User, recipesLimit int) ([]SubscriptionView, error) {
	out := make([]SubscriptionView, len(authors))
	if len(authors) == 0 {
		return out, nil
	}

	subscribed, err := p.subscribed(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	recipes, counts, err := p.previews.AuthorRecipes(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	for i, a := range authors {
		out[i] = Subscription(a, subscribed[a.ID], recipes[a.ID], counts[a.ID])
	}
	return out, nil
}

// SubscriptionFor builds one subscription representation.
func (p *Presenter) SubscriptionFor(ctx context.Context, viewer Viewer, author models.User, recipesLimit int) (SubscriptionView, error) {
	views, err := p.Subscriptions(ctx, viewer, []models.User{author}, recipesLimit)
	if err != nil {
		return SubscriptionView{}, err
	}
	return views[0], nil
}

func (p *Presenter) subscribed(ctx context.Context, viewer Viewer, users []models.User) (map[uint]bool, error) {
	if viewer.Anonymous() || len(users) == 0 {
		return nil, nil
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return p.marks.SubscribedAuthors(ctx, viewer.UserID, ids)
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
