package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/oakline/storefront/internal/checkout"
	"github.com/oakline/storefront/internal/events"
	"github.com/oakline/storefront/internal/identity"
	"github.com/oakline/storefront/internal/notifier"
	"github.com/oakline/storefront/internal/payments"
	"github.com/oakline/storefront/internal/router"
	"github.com/oakline/storefront/pkg/ai"
	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/mongo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	mongo.InitMongoDB()
	mongo.EnsureIndexesOnStartup()
	store := mongo.NewStore(mongo.GetDatabase())

	ctx := context.Background()

	issuer := os.Getenv("OIDC_ISSUER")
	clientID := os.Getenv("OIDC_CLIENT_ID")
	if issuer == "" || clientID == "" {
		log.Fatal("OIDC_ISSUER and OIDC_CLIENT_ID must be set")
	}
	bridge, err := identity.NewBridge(ctx, issuer, clientID, store)
	if err != nil {
		log.Fatalf("Failed to initialize identity bridge: %v", err)
	}

	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		log.Fatal("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set")
	}
	paymentService := payments.NewService(
		payments.NewRazorpayProvider(keyID, keySecret),
		store,
		[]byte(keySecret),
	)

	// Broker and mail sender are optional; checkout degrades to local-only
	// side effects when either is absent.
	var publisher checkout.Publisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		p, err := events.NewPublisher(amqpURL)
		if err != nil {
			log.Printf("Order event publishing disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	} else {
		log.Println("Order event publishing disabled - AMQP_URL not provided")
	}

	var mailer checkout.Notifier
	if m, err := notifier.NewEmailNotifier(ctx); err != nil {
		log.Printf("Order confirmation mail disabled: %v", err)
	} else {
		mailer = m
	}

	ai.InitializeAIService()

	checkoutService := checkout.NewService(store, store, store, store, publisher, mailer)

	router.InitEngine()
	router.InitializeRoutes(router.Deps{
		Store:    store,
		Checkout: checkoutService,
		Payments: paymentService,
		Bridge:   bridge,
		CacheOn:  os.Getenv("REDIS_ADDRESS") != "",
	})

	port := global.GetEnvOrDefault("PORT", "8000")
	log.Printf("Server is running on port %s", port)

	if err := router.Router.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
