package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type updateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type favoriteRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// UpdateProfile updates the user's name and email, rejecting an email that
// another account already uses.
func UpdateProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&existing)
		if err == nil && existing.ID != userID {
			respondWithError(c, http.StatusBadRequest, route, "email already in use")
			return
		}
		if err != nil && err != mongo.ErrNoDocuments {
			log.Println("[USER] [ERROR] email lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		update := bson.M{"$set": bson.M{
			"name":      name,
			"email":     email,
			"updatedAt": time.Now(),
		}}
		if _, err := db.Collection("users").UpdateByID(ctx, userID, update); err != nil {
			log.Println("[USER] [ERROR] profile update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             user.ID.Hex(),
			"name":           user.Name,
			"email":          user.Email,
			"profilePicture": user.ProfilePicture,
		})
	}
}

// GetFavorites returns the user's favorite products, in favorite order.
func GetFavorites(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/:id/favorites"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if len(user.Favorites) == 0 {
			c.JSON(http.StatusOK, gin.H{"favorites": []models.Product{}})
			return
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{
			"_id":       bson.M{"$in": user.Favorites},
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			log.Println("[FAVORITE] [ERROR] list favorites failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[FAVORITE] [ERROR] decode favorites failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		productByID := make(map[primitive.ObjectID]models.Product, len(products))
		for _, product := range products {
			productByID[product.ID] = product
		}

		ordered := make([]models.Product, 0, len(products))
		for _, favoriteID := range user.Favorites {
			if product, exists := productByID[favoriteID]; exists {
				ordered = append(ordered, product)
			}
		}

		c.JSON(http.StatusOK, gin.H{"favorites": ordered})
	}
}

// ToggleFavorite adds the product to the user's favorites when absent and
// removes it when present, returning the resulting favorite id list.
func ToggleFavorite(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/:id/favorites"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		var req favoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		favorites := make([]primitive.ObjectID, 0, len(user.Favorites)+1)
		removed := false
		for _, favorite := range user.Favorites {
			if favorite == productID {
				removed = true
				continue
			}
			favorites = append(favorites, favorite)
		}
		if !removed {
			favorites = append(favorites, productID)
		}

		update := bson.M{"$set": bson.M{
			"favorites": favorites,
			"updatedAt": time.Now(),
		}}
		if _, err := db.Collection("users").UpdateByID(ctx, userID, update); err != nil {
			log.Println("[FAVORITE] [ERROR] favorites update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"favorites": favorites})
	}
}

// UploadProfilePicture stores a new profile image and records its path.
func UploadProfilePicture(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/:id/upload"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid user id")
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "image file is required")
			return
		}

		imagePath, err := saveImage(file)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		update := bson.M{"$set": bson.M{
			"profilePicture": imagePath,
			"updatedAt":      time.Now(),
		}}
		if _, err := db.Collection("users").UpdateByID(ctx, userID, update); err != nil {
			log.Println("[USER] [ERROR] profile picture update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"image": imagePath})
	}
}
