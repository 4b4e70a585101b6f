package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/wichananm65/shopper-backend/internal/address"
	"github.com/wichananm65/shopper-backend/internal/banner"
	"github.com/wichananm65/shopper-backend/internal/cart"
	"github.com/wichananm65/shopper-backend/internal/category"
	"github.com/wichananm65/shopper-backend/internal/config"
	"github.com/wichananm65/shopper-backend/internal/docstore"
	"github.com/wichananm65/shopper-backend/internal/favorite"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/order"
	"github.com/wichananm65/shopper-backend/internal/payment"
	"github.com/wichananm65/shopper-backend/internal/product"
	"github.com/wichananm65/shopper-backend/internal/recommended"
	"github.com/wichananm65/shopper-backend/internal/review"
	"github.com/wichananm65/shopper-backend/internal/user"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := mustOpenStore(ctx, cfg)
	defer store.Close()

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger)

	userService := user.NewService(user.NewDocRepository(store))
	productService := product.NewService(product.NewDocRepository(store))
	categoryService := category.NewService(category.NewDocRepository(store))
	bannerService := banner.NewService(banner.NewDocRepository(store))

	// cart writes are retried in the background; watching keeps open carts
	// in line with changes made from other devices
	sessions := cart.NewSessions(cart.NewDocRepository(store), cart.Options{
		Attempts: cfg.CartSyncAttempts,
		Backoff:  cfg.CartSyncBackoff,
	}, true)
	sessions.EvictEvery(time.Minute, cfg.CartIdleTimeout)

	orders := order.NewManager(order.NewDocRepository(store), order.Options{
		ShippingFee:  cfg.ShippingFee,
		DeliveryDays: cfg.DeliveryDays,
		Products:     productService,
	})
	reviewService := review.NewService(review.NewDocRepository(store), review.Options{
		Purchases: orders,
		Products:  productService,
	})

	userHandler := user.NewHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(categoryService)
	reviewHandler := review.NewHandler(reviewService)
	paymentHandler := payment.NewHandler()
	cartHandler := cart.NewHandler(sessions, productService)
	orderHandler := order.NewHandler(orders, sessions)
	addressHandler := address.NewHandler(address.NewService(address.NewDocRepository(store)))
	favoriteHandler := favorite.NewHandler(favorite.NewService(favorite.NewDocRepository(store), productService))
	bannerHandler := banner.NewHandler(bannerService)
	recommendedHandler := recommended.NewHandler(recommended.NewService(productService, reviewService))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": cfg.StoreDriver, "auth": cfg.AuthMode})
	})

	// dev endpoint: replace categories, products and banners with the samples (gated by ALLOW_SEED)
	app.Post("/dev/seed", func(c *fiber.Ctx) error {
		if !cfg.AllowSeed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "not allowed"})
		}
		if err := categoryService.Reset(c.UserContext(), category.SampleCategories()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
		if err := productService.ResetProducts(c.UserContext(), product.SampleProducts()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
		if err := bannerService.Reset(c.UserContext(), banner.SampleBanners()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
		return c.JSON(fiber.Map{
			"categories": len(category.SampleCategories()),
			"products":   len(product.SampleProducts()),
			"banners":    len(banner.SampleBanners()),
		})
	})

	if cfg.AuthMode == config.AuthJWT {
		userHandler.RegisterPublicRoutes(app)
	}
	categoryHandler.RegisterPublicRoutes(app)
	reviewHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)
	bannerHandler.RegisterPublicRoutes(app)
	// register product public routes after specific endpoints to avoid route param collision
	recommendedHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(authMiddleware(ctx, cfg, userService)...)

	userHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	reviewHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	favoriteHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)

	go func() {
		<-ctx.Done()
		log.Printf("[app] shutting down")
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sessions.Flush(flushCtx); err != nil {
			log.Printf("[app] WARN: cart writes still pending at shutdown: %v", err)
		}
		sessions.Close()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Printf("[app] WARN: shutdown: %v", err)
		}
	}()

	log.Printf("[app] listening on %s (store=%s auth=%s)", cfg.Addr, cfg.StoreDriver, cfg.AuthMode)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("[app] listen: %v", err)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// authMiddleware picks the identity source. Both attach the resolved
// caller, with the role read from the stored profile.
func authMiddleware(ctx context.Context, cfg config.Config, resolver identity.Resolver) []interface{} {
	switch cfg.AuthMode {
	case config.AuthFirebase:
		client, err := identity.NewFirebaseAuth(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			log.Fatalf("[app] %v", err)
		}
		return []interface{}{identity.FirebaseGuard(client, resolver)}
	case config.AuthJWT:
		if cfg.JWTSecret == "" {
			log.Fatalf("[app] JWT_SECRET is not set")
		}
		return []interface{}{identity.JWTGuard(cfg.JWTSecret), identity.Attach(resolver)}
	}
	log.Fatalf("[app] unknown AUTH_MODE %q", cfg.AuthMode)
	return nil
}

func mustOpenStore(ctx context.Context, cfg config.Config) docstore.Store {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Printf("[app] using in-memory store; data is lost on restart")
		return docstore.NewMemoryStore()
	case config.DriverPostgres:
		db := mustOpenDB(cfg.DatabaseURL)
		pg := docstore.NewPostgresStore(db, cfg.DatabaseURL)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("[app] %v", err)
		}
		return pg
	case config.DriverFirestore:
		fs, err := docstore.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			log.Fatalf("[app] %v", err)
		}
		return fs
	}
	log.Fatalf("[app] unknown STORE_DRIVER %q", cfg.StoreDriver)
	return nil
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		log.Fatalf("[app] DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("[app] open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("[app] ping database: %v", err)
	}

	return db
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Printf("[http] %s %s -> %d (%s)", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
	return err
}
