// Local development server: serves the same dispatcher the Lambda runs,
// over plain HTTP, so the function can be exercised without a deployed
// gateway.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/handler"
	"github.com/qmb/roombooking/internal/mailer"
	"github.com/qmb/roombooking/internal/repository"
	"github.com/qmb/roombooking/internal/service"
	"github.com/qmb/roombooking/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	repo := repository.NewBookingRepository(dynamodb.NewFromConfig(awsCfg), cfg)
	m := mailer.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg)
	svc := service.NewBookingService(repo, m, token.NewUUIDIssuer(), cfg)
	h := handler.New(svc, cfg)

	router := httprouter.New()
	router.Handler(http.MethodGet, "/getSlots", h)
	router.Handler(http.MethodGet, "/getAvailableSlots", h)
	router.Handler(http.MethodPost, "/bookSlot", h)
	router.Handler(http.MethodGet, "/cancelBooking", h)
	// Unmapped paths and methods still go through the dispatcher so local
	// responses match the deployed 404 contract.
	router.NotFound = h
	router.HandleMethodNotAllowed = false

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped cleanly")
}
