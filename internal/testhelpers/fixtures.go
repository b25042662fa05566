package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the password of every user created by CreateUser.
const TestPassword = "s3cret-pass"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// CreateUser inserts a user whose email is <username>@example.com.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		PasswordHash: passwordHash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// CreateTag inserts a tag named name with a slug derived from it.
func CreateTag(t *testing.T, db *gorm.DB, name, color string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slugify(name)}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

// CreateIngredient inserts an ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// Amount pairs an ingredient with a quantity for CreateRecipe.
type Amount struct {
	Ingredient *models.Ingredient
	Amount     int
}

var recipeSeq int

// CreateRecipe inserts a recipe directly, bypassing the service layer.
// Recipes created later sort first in listings.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, amounts ...Amount) *models.Recipe {
	t.Helper()
	recipeSeq++
	recipe := &models.Recipe{
		CreatedAt:   time.Now().Add(time.Duration(recipeSeq) * time.Millisecond),
		AuthorID:    author.ID,
		Name:        name,
		Text:        fmt.Sprintf("How to cook %s (#%d)", name, recipeSeq),
		CookingTime: 30,
		Image:       "/media/recipes/images/" + slugify(name) + ".png",
	}
	if err := db.Omit(clause.Associations).Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	for _, tag := range tags {
		if err := db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
			t.Fatalf("failed to tag recipe %s: %v", name, err)
		}
	}
	for _, a := range amounts {
		row := models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: a.Ingredient.ID, Amount: a.Amount}
		if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
			t.Fatalf("failed to add ingredient to recipe %s: %v", name, err)
		}
	}
	return recipe
}

// AddToCart puts recipe into user's shopping cart.
func AddToCart(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	item := models.ShoppingCartItem{UserID: user.ID, RecipeID: recipe.ID}
	if err := db.Omit(clause.Associations).Create(&item).Error; err != nil {
		t.Fatalf("failed to add recipe to cart: %v", err)
	}
}

// AddFavorite marks recipe as a favorite of user.
func AddFavorite(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	fav := models.Favorite{UserID: user.ID, RecipeID: recipe.ID}
	if err := db.Omit(clause.Associations).Create(&fav).Error; err != nil {
		t.Fatalf("failed to favorite recipe: %v", err)
	}
}

// Subscribe makes user follow author.
func Subscribe(t *testing.T, db *gorm.DB, user, author *models.User) {
	t.Helper()
	sub := models.Subscription{UserID: user.ID, AuthorID: author.ID}
	if err := db.Omit(clause.Associations).Create(&sub).Error; err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
}

// PNG is a valid 1x1 PNG encoded as a data URI.
const PNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func slugify(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
