package router

import (
	"fmt"

	"github.com/anonto42/foodgram/backend/internal/handlers"
	"github.com/anonto42/foodgram/backend/internal/images"
	"github.com/anonto42/foodgram/backend/internal/metrics"
	"github.com/anonto42/foodgram/backend/internal/middleware"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/anonto42/foodgram/backend/pkg/config"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/anonto42/foodgram/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuth may be nil when Firebase is not configured.
func SetupRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, log *logger.Logger, firebaseAuth middleware.IDTokenVerifier) error {
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(log)
	e.Use(metrics.Middleware())

	// --- Repositories and services ---
	store := repositories.NewStore(db)
	imageStorage, err := images.NewStorage(cfg.MediaRoot)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}
	recipeService := services.NewRecipeService(store, imageStorage, cfg.MediaURL, log)
	favoriteService := services.NewFavoriteService(store, cfg.MediaURL)
	cartService := services.NewShoppingCartService(store, cfg.MediaURL)
	shoppingListService := services.NewShoppingListService(store)
	followService := services.NewFollowService(store, cfg.MediaURL)

	var resolvers []middleware.TokenResolver
	if firebaseAuth != nil {
		resolvers = append(resolvers, middleware.FirebaseTokenResolver(firebaseAuth, store.Users))
	}
	activeUser := middleware.ActiveUser(store.Users)
	requireAuth := middleware.Chain(middleware.JWTAuthMiddleware(cfg.JWTSecret, resolvers...), activeUser)
	optionalAuth := middleware.Chain(middleware.OptionalJWTAuth(cfg.JWTSecret, resolvers...), activeUser)

	// Health check and media - always accessible
	e.GET("/health", handlers.HealthCheck(db))
	e.Static(cfg.MediaURL, cfg.MediaRoot)

	api := e.Group("/api")

	authHandler := handlers.NewAuthHandler(store.Users, firebaseAuth, cfg.JWTSecret, log)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), requireAuth)

	handlers.NewUserHandler(store, recipeService, cfg.PageSize, log).RegisterUserRoutes(api, requireAuth, optionalAuth)
	handlers.NewFollowHandler(followService, cfg.PageSize).RegisterFollowRoutes(api, requireAuth)
	handlers.NewTagHandler(store.Tags).RegisterTagRoutes(api)
	handlers.NewIngredientHandler(store.Ingredients).RegisterIngredientRoutes(api)
	handlers.NewRecipeHandler(recipeService, cfg.PageSize).RegisterRecipeRoutes(api, requireAuth, optionalAuth)
	handlers.NewFavoriteHandler(favoriteService).RegisterCollectionRoutes(api, requireAuth)
	handlers.NewShoppingCartHandler(cartService).RegisterCollectionRoutes(api, requireAuth)
	handlers.NewShoppingListHandler(shoppingListService).RegisterShoppingListRoutes(api, requireAuth)

	log.Info("All routes configured", "firebase", firebaseAuth != nil)
	return nil
}
