package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"laundry-bot/config"
	"laundry-bot/internal/api"
	"laundry-bot/internal/bot"
	"laundry-bot/internal/db"
	"laundry-bot/internal/poller"
	"laundry-bot/internal/push"
	"laundry-bot/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "laundry-bot ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Connect to the chat platform
	botAPI, err := tgbotapi.NewBotAPI(cfg.Secrets.BotToken)
	if err != nil {
		logger.Fatalf("failed to connect to Telegram: %v", err)
	}
	botAPI.Debug = cfg.Bot.Debug
	logger.Printf("authorized on bot account %s", botAPI.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Web push fanout is optional; without VAPID keys completions are only
	// announced in chat.
	var pushPool *push.Pool
	var webpushOptions *webpush.Options
	var broadcaster bot.CompletionBroadcaster
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pushPool = push.NewPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pushPool.Start(ctx)
		broadcaster = pushPool
		logger.Println("web push fanout enabled")
	} else {
		logger.Println("VAPID keys not configured; web push fanout disabled")
	}

	presence := bot.NewPresence(botAPI, appStore, cfg.Bot.LaundryChatID, cfg.Location())
	laundryBot := bot.New(botAPI, appStore, presence, broadcaster, cfg)

	// Start the pollers
	notifier := poller.NewNotifier(appStore, laundryBot, presence, broadcaster,
		cfg.Poller.NotificationInterval, cfg.Poller.NotificationBatch)
	go notifier.Run(ctx)
	go poller.NewPresenceLoop(presence, cfg.Poller.PresenceInterval).Run(ctx)

	// Start consuming chat updates
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates, err := botAPI.GetUpdatesChan(updateConfig)
	if err != nil {
		logger.Fatalf("failed to get updates channel: %v", err)
	}
	go laundryBot.Run(ctx, updates)

	// HTTP API
	router := api.NewRouter(appStore, cfg, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()
	botAPI.StopReceivingUpdates()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
