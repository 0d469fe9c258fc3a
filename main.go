package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"pnodewatch/config"
	"pnodewatch/handlers"
	"pnodewatch/middleware"
	"pnodewatch/services"
	"pnodewatch/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Redis enabled: %v", cfg.Redis.Enabled)
	log.Printf("MongoDB enabled: %v", cfg.MongoDB.Enabled)

	// 2. Core Services
	geo, err := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	if err != nil {
		log.Printf("GeoIP DB not found at %s: %v (falling back to API lookups)", cfg.GeoIP.DBPath, err)
	}
	defer geo.Close()

	mongoService, err := services.NewMongoDBService(cfg)
	if err != nil {
		log.Printf("MongoDB connection failed: %v", err)
		log.Println("History persistence will be disabled")
		mongoService = &services.MongoDBService{}
	}
	defer mongoService.Close()

	discordBot, err := services.NewDiscordBotService(cfg.Discord.BotToken, cfg.Discord.ChannelID)
	if err != nil {
		log.Printf("Discord bot initialization failed: %v", err)
		discordBot = &services.DiscordBotService{}
	}
	defer discordBot.Close()

	prpc := services.NewPRPCClient(cfg)
	creditsService := services.NewCreditsService(cfg)
	poller := services.NewPoller(cfg, prpc, creditsService, geo)
	aggregator := services.NewAggregator(poller)
	cache := services.NewCacheService(cfg, poller, aggregator)
	summaryService := services.NewSummaryService(cfg, aggregator)
	historyService := services.NewHistoryService(cfg, poller, aggregator, mongoService)
	alertService := services.NewAlertService(cfg, poller, aggregator, mongoService, discordBot)

	// 3. Start Background Services
	log.Println("=== Starting Services ===")

	poller.Start()
	log.Println("Poller started")

	cache.StartCacheWarmer()
	log.Printf("Cache Service started (mode: %s)", cache.GetCacheMode())

	historyService.Start()
	log.Println("History Service started")

	alertService.Start()
	log.Println("Alert Service started")

	log.Println("=== All Services Running ===")

	// 4. Web Server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 5. Handlers
	h := handlers.NewHandler(cfg, cache, poller, prpc)
	creditsHandlers := handlers.NewCreditsHandlers(creditsService)
	summaryHandlers := handlers.NewSummaryHandlers(summaryService)
	historyHandlers := handlers.NewHistoryHandlers(historyService)
	alertHandlers := handlers.NewAlertHandlers(alertService, mongoService)
	cacheHandlers := handlers.NewCacheHandlers(cache)

	// 6. Routes
	e.GET("/health", h.GetHealth)
	e.GET("/cache/status", cacheHandlers.GetCacheStatus)
	e.POST("/cache/clear", cacheHandlers.ClearCache)

	api := e.Group("/api")

	api.GET("/status", h.GetStatus)
	api.GET("/nodes", h.GetNodes)
	api.GET("/nodes/:id", h.GetNode)
	api.GET("/stats", h.GetStats)
	api.POST("/prpc", h.ProxyPods)

	credits := api.Group("/credits")
	credits.GET("", creditsHandlers.GetAllCredits)
	credits.GET("/top", creditsHandlers.GetTopCredits)
	credits.GET("/:pubkey", creditsHandlers.GetNodeCredits)

	api.GET("/summary", summaryHandlers.GetSummary)
	api.POST("/summary/flush", summaryHandlers.FlushSummary)

	history := api.Group("/history")
	history.GET("/network", historyHandlers.GetNetworkHistory)
	history.GET("/nodes/:id", historyHandlers.GetNodeHistory)

	alerts := api.Group("/alerts")
	alerts.GET("", alertHandlers.ListRules)
	alerts.POST("", alertHandlers.CreateRule)
	alerts.DELETE("/:id", alertHandlers.DeleteRule)
	alerts.GET("/events", alertHandlers.GetEvents)

	// 7. Start Server with Graceful Shutdown
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping services...")
	alertService.Stop()
	historyService.Stop()
	cache.Stop()
	poller.Stop()
	log.Println("All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("Server exited cleanly")
}
