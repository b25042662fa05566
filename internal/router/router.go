// Package router wires services, handlers and middleware into the gin engine.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/presenter"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// Services holds every service behind the HTTP API.
type Services struct {
	DB    *gorm.DB
	Redis *redis.Client

	Auth      *service.AuthService
	Users     *service.UserService
	Recipes   *service.RecipeService
	Catalog   *service.CatalogService
	Shopping  *service.ShoppingListService
	Favorites *service.Relation[models.Favorite]
	Cart      *service.Relation[models.ShoppingCartItem]
	Marks     *service.Marks
}

// NewServices builds the services over db. redisClient may be nil, which
// disables token revocation and rate limiting.
func NewServices(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) *Services {
	favorites := service.NewFavorites(db)
	cart := service.NewShoppingCart(db)
	subscriptions := service.NewSubscriptions(db)

	var denylist service.TokenDenylist
	if redisClient != nil {
		denylist = service.NewRedisDenylist(redisClient)
	}

	return &Services{
		DB:        db,
		Redis:     redisClient,
		Auth:      service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, denylist),
		Users:     service.NewUserService(db, subscriptions),
		Recipes:   service.NewRecipeService(db, images, favorites, cart),
		Catalog:   service.NewCatalogService(db),
		Shopping:  service.NewShoppingListService(db, cfg.AppName),
		Favorites: favorites,
		Cart:      cart,
		Marks:     &service.Marks{Favorites: favorites, Cart: cart, Subscriptions: subscriptions},
	}
}

// SetupRouter configures the application routes
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	validation.InstallGinValidator()

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(cfg.CORSOrigins),
	)

	health := api.NewHealthHandler(svc.DB, svc.Redis)
	router.GET("/health", health.HealthCheck)
	router.GET("/api/health", health.HealthCheck)
	router.GET("/metrics", metrics.Handler())

	if !cfg.S3Enabled() {
		router.Static(mediaPrefix(cfg.MediaURL), cfg.MediaRoot)
	}

	requireAuth := middleware.RequireAuth(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)

	var createLimits []gin.HandlerFunc
	if svc.Redis != nil {
		createLimits = append(createLimits, middleware.NewRecipeCreationRateLimiter(svc.Redis).RateLimitMiddleware())
	}

	p := presenter.New(svc.Marks, svc.Recipes)
	apiGroup := router.Group("/api")
	{
		api.NewAuthHandler(svc.Auth).RegisterRoutes(apiGroup, requireAuth)
		api.NewUserHandler(svc.Users, p, cfg.PageSize).RegisterRoutes(apiGroup, requireAuth, optionalAuth)
		api.NewCatalogHandler(svc.Catalog).RegisterRoutes(apiGroup)
		api.NewRecipeHandler(svc.Recipes, svc.Favorites, svc.Cart, svc.Shopping, p, cfg.PageSize).
			RegisterRoutes(apiGroup, requireAuth, optionalAuth, createLimits...)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	return router
}

func mediaPrefix(mediaURL string) string {
	prefix := "/" + strings.Trim(mediaURL, "/")
	if prefix == "/" {
		return "/media"
	}
	return prefix
}
