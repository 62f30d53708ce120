package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ergomap/risk-map/internal/ai"         // OpenAI-backed diagram and hazard generation
	"github.com/ergomap/risk-map/internal/config"     // Internal config loader
	"github.com/ergomap/risk-map/internal/database"   // MySQL connection helper
	"github.com/ergomap/risk-map/internal/handler"    // HTTP handlers
	"github.com/ergomap/risk-map/internal/middleware" // Redis cache and rate limiting
	"github.com/ergomap/risk-map/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/ergomap/risk-map/internal/repository" // Data access layer
	"github.com/ergomap/risk-map/internal/router"     // Internal router setup
	"github.com/ergomap/risk-map/internal/service"    // Business logic
)

func main() {
	// Load .env if present; real deployments set the environment directly,
	// so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool.  Everything downstream shares this handle.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the shared pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	mapRepo := repository.NewMapRepo(db)
	riskRepo := repository.NewRiskRepo(db)

	// The generator is optional: without an API key the CRUD surface still
	// works and the generation endpoints report that generation is not
	// configured.  A typed nil must not leak into the interface, hence the
	// explicit assignment only on success.
	var gen ai.Generator
	if cfg.OpenAIKey != "" {
		g, err := ai.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			log.Fatalf("generator: %v", err)
		}
		gen = g
	} else {
		log.Println("OPENAI_API_KEY not set; generation endpoints disabled")
	}

	svc := service.NewMapService(mapRepo, riskRepo, gen, queue.NewPublisher())
	defer svc.Close()

	// Background consumer that records generation events to a log file.  It
	// reconnects on broker failures and never takes the API down with it.
	go func() {
		if err := queue.StartGeneratedConsumer(); err != nil {
			log.Printf("generated consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Validator = handler.NewRequestValidator() // schema validation for request bodies

	// Redis backs both the token-bucket rate limiter and the GET response
	// cache.  Both middlewares degrade to pass-through when Redis is down.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	svc.SetCacheInvalidator(middleware.NewCacheInvalidator(cacheCfg, rdb))

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	mapHandler := handler.NewMapHandler(svc)
	riskHandler := handler.NewRiskHandler(svc)
	aiHandler := handler.NewAIHandler(svc)

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterMaps(e, mapHandler, riskHandler, aiHandler, cfg.JWTSecret, limiter, cache)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
