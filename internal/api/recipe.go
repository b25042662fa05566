package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/presenter"
	"github.com/pageza/foodgram/backend/internal/service"
)

// RecipeHandler serves recipes, the favorite and cart markers and the
// shopping list download.
type RecipeHandler struct {
	recipes   service.IRecipeService
	favorites service.IRelation
	cart      service.IRelation
	shopping  service.IShoppingListService
	presenter *presenter.Presenter
	pages     pagination
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	favorites service.IRelation,
	cart service.IRelation,
	shopping service.IShoppingListService,
	p *presenter.Presenter,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		favorites: favorites,
		cart:      cart,
		shopping:  shopping,
		presenter: p,
		pages:     pagination{defaultSize: pageSize},
	}
}

// RegisterRoutes mounts the recipe routes. createLimits run before recipe
// creation.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc, createLimits ...gin.HandlerFunc) {
	create := append([]gin.HandlerFunc{requireAuth}, createLimits...)
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.marker(h.favorites, true))
		recipes.DELETE("/:id/favorite", requireAuth, h.marker(h.favorites, false))
		recipes.POST("/:id/shopping_cart", requireAuth, h.marker(h.cart, true))
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.marker(h.cart, false))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := h.pages.parse(c)
	if !ok {
		return
	}

	filter := service.RecipeFilter{
		Viewer:         currentUser(c),
		Tags:           c.QueryArray("tags"),
		Favorited:      flag(c, "is_favorited"),
		InShoppingCart: flag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"A valid integer is required."}})
			return
		}
		filter.AuthorID = uint(author)
	}

	ctx := c.Request.Context()
	recipes, total, err := h.recipes.List(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.presenter.Recipes(ctx, viewer(c), recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, page, total, views)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var in service.RecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	current, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !service.IsAuthor(current, currentUser(c)) {
		respondError(c, service.PermissionDenied("You do not have permission to perform this action."))
		return
	}

	var in service.RecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// marker adds or removes the requester's favorite or cart marker on a recipe.
func (h *RecipeHandler) marker(relation service.IRelation, add bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		if !add {
			if err := relation.Remove(ctx, currentUser(c), id); err != nil {
				respondRemoveError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		if err := relation.Add(ctx, currentUser(c), id); err != nil {
			respondError(c, err)
			return
		}
		recipe, err := h.recipes.Get(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, presenter.RecipeSummary(*recipe))
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	text, err := h.shopping.Export(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.ShoppingListFilename)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	view, err := h.presenter.RecipeFor(c.Request.Context(), viewer(c), *recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}
