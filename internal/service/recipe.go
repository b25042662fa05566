package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// IngredientAmount is one (ingredient, amount) pair of a recipe write.
type IngredientAmount struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=1,lte=10000"`
}

// RecipeInput is the write representation of a recipe. Image is a base64
// data URI; it is required on create and optional on update.
type RecipeInput struct {
	Tags        []uint             `json:"tags" validate:"required,min=1,unique"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"unique=ID,dive"`
	Name        string             `json:"name" validate:"required,max=200"`
	Image       string             `json:"image"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time" validate:"gte=1,lte=720"`
}

// RecipeFilter narrows a recipe listing. Favorited and InShoppingCart only
// apply when Viewer is set.
type RecipeFilter struct {
	Viewer         uint
	Tags           []string
	AuthorID       uint
	Favorited      bool
	InShoppingCart bool
}

// Page selects a 1-based page of Size items.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt32/p.Size {
		return math.MaxInt32
	}
	return (p.Number - 1) * p.Size
}

// RecipeService handles recipe operations
type RecipeService struct {
	db        *gorm.DB
	images    ImageStore
	favorites *Relation[models.Favorite]
	cart      *Relation[models.ShoppingCartItem]
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, favorites *Relation[models.Favorite], cart *Relation[models.ShoppingCartItem]) *RecipeService {
	return &RecipeService{
		db:        db,
		images:    images,
		favorites: favorites,
		cart:      cart,
	}
}

// IsAuthor reports whether userID owns the recipe. Only the author may change
// or delete it.
func IsAuthor(recipe *models.Recipe, userID uint) bool {
	return recipe != nil && userID != 0 && recipe.AuthorID == userID
}

// Create stores a new recipe with its tags and ingredients in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	if err := s.check(ctx, in, true); err != nil {
		return nil, err
	}

	image, err := SaveImage(ctx, s.images, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       image,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return translateRecipeError(err)
		}
		return replaceTagsAndIngredients(tx, recipe.ID, in)
	})
	if err != nil {
		discardImage(ctx, s.images, image)
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, recipe.ID)
}

// Update replaces every field of the recipe. Ingredients are deleted and
// recreated and the tag set is replaced; an empty list empties the recipe.
func (s *RecipeService) Update(ctx context.Context, actorID, recipeID uint, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !IsAuthor(recipe, actorID) {
		return nil, PermissionDenied("You do not have permission to perform this action.")
	}
	if err := s.check(ctx, in, false); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	image := oldImage
	if in.Image != "" {
		if image, err = SaveImage(ctx, s.images, in.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clearing recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("clearing recipe tags: %w", err)
		}
		if err := replaceTagsAndIngredients(tx, recipeID, in); err != nil {
			return err
		}
		err := tx.Model(&models.Recipe{ID: recipeID}).
			Select("name", "text", "cooking_time", "image", "updated_at").
			Updates(models.Recipe{
				Name:        in.Name,
				Text:        in.Text,
				CookingTime: in.CookingTime,
				Image:       image,
			}).Error
		if err != nil {
			return translateRecipeError(err)
		}
		return nil
	})
	if err != nil {
		if image != oldImage {
			discardImage(ctx, s.images, image)
		}
		return nil, err
	}
	if image != oldImage {
		discardImage(ctx, s.images, oldImage)
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipeID).Msg("recipe updated")
	return s.Get(ctx, recipeID)
}

// Delete removes the recipe and everything that references it.
func (s *RecipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	recipe, err := s.load(ctx, recipeID)
	if err != nil {
		return err
	}
	if !IsAuthor(recipe, actorID) {
		return PermissionDenied("You do not have permission to perform this action.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartItem{}} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(m).Error; err != nil {
				return fmt.Errorf("deleting recipe references: %w", err)
			}
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}

	discardImage(ctx, s.images, recipe.Image)
	logging.Ctx(ctx).Info().Uint("recipe_id", recipeID).Msg("recipe deleted")
	return nil
}

// Get loads a recipe with its author, tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.preload(s.db.WithContext(ctx)).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Recipe not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading recipe: %w", err)
	}
	return &recipe, nil
}

// List returns one page of recipes, newest first, and the total match count.
func (s *RecipeService) List(ctx context.Context, f RecipeFilter, page Page) ([]models.Recipe, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if len(f.Tags) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if f.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.Viewer != 0 && f.Favorited {
		query = query.Where("recipes.id IN (?)", s.favorites.TargetIDs(ctx, f.Viewer))
	}
	if f.Viewer != 0 && f.InShoppingCart {
		query = query.Where("recipes.id IN (?)", s.cart.TargetIDs(ctx, f.Viewer))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting recipes: %w", err)
	}

	var recipes []models.Recipe
	err := s.preload(query).
		Order("recipes.created_at DESC, recipes.id DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, total, nil
}

// AuthorRecipes returns up to limit newest recipes of each author (all when
// limit < 0) and the full recipe count per author.
func (s *RecipeService) AuthorRecipes(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error) {
	recipes := make(map[uint][]models.Recipe, len(authorIDs))
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return recipes, counts, nil
	}

	db := s.db.WithContext(ctx)

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("counting author recipes: %w", err)
	}
	for _, r := range rows {
		counts[r.AuthorID] = r.Total
	}

	if limit == 0 {
		return recipes, counts, nil
	}

	var all []models.Recipe
	err = db.Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Find(&all).Error
	if err != nil {
		return nil, nil, fmt.Errorf("loading author recipes: %w", err)
	}
	for _, r := range all {
		if limit > 0 && len(recipes[r.AuthorID]) >= limit {
			continue
		}
		recipes[r.AuthorID] = append(recipes[r.AuthorID], r)
	}
	return recipes, counts, nil
}

func (s *RecipeService) load(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Recipe not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading recipe: %w", err)
	}
	return &recipe, nil
}

func (s *RecipeService) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// check validates the input and that every referenced tag and ingredient exists.
func (s *RecipeService) check(ctx context.Context, in RecipeInput, create bool) error {
	verr := &ValidationError{}
	if err := validate(in); err != nil {
		var v *ValidationError
		if !errors.As(err, &v) {
			return err
		}
		verr = v
	}
	if create && in.Image == "" {
		verr.Add("image", "This field is required.")
	}
	if !verr.Empty() {
		return verr
	}

	db := s.db.WithContext(ctx)

	missing, err := missingIDs(db, &models.Tag{}, in.Tags)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("tags", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(id)))
	}

	ingredientIDs := make([]uint, len(in.Ingredients))
	for i, ia := range in.Ingredients {
		ingredientIDs[i] = ia.ID
	}
	missing, err = missingIDs(db, &models.Ingredient{}, ingredientIDs)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("ingredients", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(id)))
	}

	return verr.Err()
}

// missingIDs returns the ids with no row in model's table, in ascending order.
func missingIDs(db *gorm.DB, model any, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("checking references: %w", err)
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
			present[id] = true
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// replaceTagsAndIngredients inserts the tag links and ingredient rows of a
// recipe, each as one grouped statement.
func replaceTagsAndIngredients(tx *gorm.DB, recipeID uint, in RecipeInput) error {
	if len(in.Tags) > 0 {
		links := make([]models.RecipeTag, len(in.Tags))
		for i, id := range in.Tags {
			links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("linking tags: %w", err)
		}
	}

	if len(in.Ingredients) > 0 {
		rows := make([]models.RecipeIngredient, len(in.Ingredients))
		for i, ia := range in.Ingredients {
			rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: ia.ID, Amount: ia.Amount}
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			if database.IsCheckViolation(err) {
				return NewValidationError("ingredients", "Amount must be between 1 and 10000.")
			}
			return fmt.Errorf("adding recipe ingredients: %w", err)
		}
	}
	return nil
}

func translateRecipeError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return NewValidationError("text", "You already published a recipe with this text.")
	case database.IsCheckViolation(err):
		return NewValidationError("cooking_time", "Cooking time must be between 1 and 720 minutes.")
	default:
		return fmt.Errorf("saving recipe: %w", err)
	}
}
