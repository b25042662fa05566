package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/presenter"
	"github.com/pageza/foodgram/backend/internal/service"
)

// UserHandler serves accounts and subscriptions.
type UserHandler struct {
	users     service.IUserService
	presenter *presenter.Presenter
	pages     pagination
}

func NewUserHandler(users service.IUserService, p *presenter.Presenter, pageSize int) *UserHandler {
	return &UserHandler{users: users, presenter: p, pages: pagination{defaultSize: pageSize}}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.GET("", optionalAuth, h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", requireAuth, h.Me)
		users.POST("/set_password", requireAuth, h.SetPassword)
		users.GET("/subscriptions", requireAuth, h.Subscriptions)
		users.GET("/:id", optionalAuth, h.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := h.pages.parse(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	users, total, err := h.users.List(ctx, page)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.presenter.Users(ctx, viewer(c), users)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, page, total, views)
}

func (h *UserHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, presenter.CreatedUser(*user))
}

func (h *UserHandler) Me(c *gin.Context) {
	h.respondUser(c, currentUser(c))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respondUser(c, id)
}

func (h *UserHandler) respondUser(c *gin.Context, id uint) {
	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.presenter.UserFor(ctx, viewer(c), *user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var in service.SetPasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), currentUser(c), in); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, ok := h.pages.parse(c)
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	authors, total, err := h.users.Subscriptions(ctx, currentUser(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.presenter.Subscriptions(ctx, viewer(c), authors, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, page, total, views)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	author, err := h.users.Subscribe(ctx, currentUser(c), authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.presenter.SubscriptionFor(ctx, viewer(c), *author, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.users.Unsubscribe(c.Request.Context(), currentUser(c), authorID); err != nil {
		respondRemoveError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
