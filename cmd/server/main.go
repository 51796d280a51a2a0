package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mbelyakov/sales_crm/internal/assistant"
	"github.com/mbelyakov/sales_crm/internal/audit"
	"github.com/mbelyakov/sales_crm/internal/config"
	"github.com/mbelyakov/sales_crm/internal/es"
	"github.com/mbelyakov/sales_crm/internal/handlers"
	"github.com/mbelyakov/sales_crm/internal/logging"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/mykafka"
	"github.com/mbelyakov/sales_crm/internal/token"
	httpserver "github.com/mbelyakov/sales_crm/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	tokens := &token.Service{Secret: []byte(configuration.JWT_SECRET)}
	recorder := &audit.Recorder{DB: db, Producer: prod, Log: logger}
	aiClient := assistant.New(configuration.ASSISTANT_URL, configuration.ASSISTANT_MODEL)

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, "customers")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		Auth:      &authmw.Middleware{DB: db, Tokens: tokens},
		AuthH:     &handlers.AuthHandler{DB: db, Tokens: tokens, Audit: recorder},
		Customers: &handlers.CustomerHandler{DB: db, Audit: recorder},
		Deals:     &handlers.DealHandler{DB: db},
		Notes:     &handlers.NoteHandler{DB: db},
		Users:     &handlers.UserHandler{DB: db},
		Analytics: &handlers.AnalyticsHandler{DB: db},
		AuditLogs: &handlers.AuditLogHandler{DB: db, Audit: recorder},
		Transfer:  &handlers.TransferHandler{DB: db},
		Assistant: &handlers.AssistantHandler{DB: db, Assistant: aiClient},
		Search:    searchHandler,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
