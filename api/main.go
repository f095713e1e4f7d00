package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	portal "github.com/rtandjobs/courseportal"
	"github.com/rtandjobs/courseportal/catalog"
	"github.com/rtandjobs/courseportal/csrf"
	"github.com/rtandjobs/courseportal/identity"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	addr := envOr("PORTAL_ADDR", ":8080")
	mongoURI := envOr("PORTAL_MONGO_URI", "mongodb://127.0.0.1:27017")
	catalogURL := envOr("PORTAL_CATALOG_URL", "https://api.videotilehost.com/courses")
	vendorID := envOr("PORTAL_VENDOR_ID", "romantrainingandjobs")

	sessionKey := os.Getenv("PORTAL_SESSION_KEY")
	csrfKey := os.Getenv("PORTAL_CSRF_KEY")
	if sessionKey == "" || csrfKey == "" {
		logger.Fatal("PORTAL_SESSION_KEY and PORTAL_CSRF_KEY must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal("connecting to mongo", zap.Error(err))
	}

	if err = client.Ping(ctx, nil); err != nil {
		logger.Fatal("pinging mongo", zap.Error(err))
	}

	accounts := client.Database("courseportal").Collection("accounts")

	gateway := identity.NewService(identity.NewMongoAccountRepository(accounts))
	sessions := identity.NewSessions([]byte(sessionKey))
	tokens := csrf.NewAuthority([]byte(csrfKey), csrf.DefaultTTL)
	courses := catalog.NewClient(catalogURL, vendorID)

	flow := portal.NewFlow(gateway, tokens, courses, logger)
	router := portal.NewRouter(flow, sessions, logger)

	// Write timeout leaves headroom for the 30s catalog call behind the
	// dashboard.
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server started", zap.String("addr", addr))
	logger.Fatal("server exited", zap.Error(server.ListenAndServe()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
