package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v9"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/aggregator"
	"github.com/ruhidibadli/ucuzbot/internal/client"
	"github.com/ruhidibadli/ucuzbot/internal/configuration"
	"github.com/ruhidibadli/ucuzbot/internal/database"
	"github.com/ruhidibadli/ucuzbot/internal/logger"
	"github.com/ruhidibadli/ucuzbot/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(10 * time.Second)
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	// The dashboard expects prices as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("ucuzbot.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddress})
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client:", err)
		}
	}()

	var telegramBot *tgbotapi.BotAPI
	if config.TelegramBotToken != "" {
		telegramBot, err = tgbotapi.NewBotAPI(config.TelegramBotToken)
		if err != nil {
			appLogger.Error("Error creating Telegram bot:", err)
			return err
		}
		appLogger.Info("Telegram notifications enabled, bot:", telegramBot.Self.UserName)
	} else {
		appLogger.Info("Telegram bot token not set, Telegram notifications disabled")
	}

	appClient := client.Client{
		Client:          &http.Client{Timeout: config.StoreTimeout},
		Redis:           redisClient,
		Telegram:        telegramBot,
		UserAgent:       config.UserAgent,
		VAPIDPublicKey:  config.VAPIDPublicKey,
		VAPIDPrivateKey: config.VAPIDPrivateKey,
		VAPIDSubject:    config.VAPIDSubject,
		Logger:          appLogger,
	}

	storeAdapters := appClient.StoreAdapters()
	adapters := make([]aggregator.Adapter, 0, len(storeAdapters))
	for _, ad := range storeAdapters {
		adapters = append(adapters, ad)
	}

	srv := server.Server{
		DB:     database.Database{Database: dbConn.Database(database.Name)},
		Client: appClient,
		Engine: aggregator.Engine{
			Adapters:           adapters,
			Deadline:           config.SearchDeadline,
			MaxResultsPerStore: config.MaxResultsPerStore,
			Cache: client.SearchCache{
				Redis:  redisClient,
				TTL:    config.SearchCacheTTL,
				Logger: appLogger,
			},
			Logger: appLogger,
		},
		Eval:          server.NewEvalGate(config.EvalConcurrency),
		Logger:        appLogger,
		AuthSecretKey: config.AuthSecretKey,
		AdminEmail:    config.AdminEmail,
		CheckInterval: config.CheckInterval,
	}

	appLogger.Info("Starting alert sweep with interval:", config.CheckInterval)
	go srv.CheckAlertsInInterval(appContext, time.NewTicker(config.CheckInterval))

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: config.SearchDeadline + 10*time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}
