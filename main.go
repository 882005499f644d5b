package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	stripe := payment.NewClient(
		config.AppEnv.StripeSecretKey,
		config.AppEnv.StripeAPIBase,
		config.AppEnv.Currency,
	)

	r := gin.Default()
	r.Static("/images", "./public/images")

	r.POST("/api/auth/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/api/auth/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:id", handlers.GetProduct(db))
	r.POST("/api/products", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.CreateProduct(db))
	r.PUT("/api/products/:id", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.UpdateProduct(db))
	r.DELETE("/api/products/:id", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.DeleteProduct(db))

	users := r.Group("/api/users")
	users.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		users.PUT("/:id", handlers.UpdateProfile(db))
		users.GET("/:id/favorites", handlers.GetFavorites(db))
		users.POST("/:id/favorites", handlers.ToggleFavorite(db))
		users.POST("/:id/upload", handlers.UploadProfilePicture(db))
	}

	r.POST("/api/payments/create-payment-intent", handlers.CreatePaymentIntent(stripe))

	r.POST("/api/orders", handlers.CreateOrder(db, config.AppEnv.JWTSecret))
	r.GET("/api/orders/:userId", handlers.GetUserOrders(db))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
