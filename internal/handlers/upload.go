package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uploadDir = "public/images"

type productFormInput struct {
	Name           string
	NameSet        bool
	Price          float64
	PriceSet       bool
	Description    string
	DescriptionSet bool
	Category       string
	CategorySet    bool
	Stock          int
	StockSet       bool
	Image          string
}

// parseProductForm reads the multipart product form. Fields not present in
// the form are left unset so updates can be partial.
func parseProductForm(c *gin.Context) (productFormInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return productFormInput{}, fmt.Errorf("invalid multipart form")
	}

	input := productFormInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.TrimSpace(value)
		input.CategorySet = true
	}
	if value, ok := c.GetPostForm("price"); ok {
		price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return productFormInput{}, fmt.Errorf("invalid price value")
		}
		input.Price = price
		input.PriceSet = true
	}
	if value, ok := c.GetPostForm("stock"); ok {
		stock, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || stock < 0 {
			return productFormInput{}, fmt.Errorf("invalid stock value")
		}
		input.Stock = stock
		input.StockSet = true
	}

	if file, err := c.FormFile("image"); err == nil {
		imagePath, err := saveImage(file)
		if err != nil {
			return productFormInput{}, err
		}
		input.Image = imagePath
	}

	return input, nil
}

func saveImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	allowedExtensions := map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".webp": {},
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	const maxImageSize = 5 << 20
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	filename := primitive.NewObjectID().Hex() + extension

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("[UPLOAD] saveImage: failed to create directory %s: %v", uploadDir, err)
		return "", err
	}

	fullPath := filepath.Join(uploadDir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] saveImage: failed to create file %s: %v", fullPath, err)
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		log.Printf("[UPLOAD] saveImage: failed to open upload %s: %v", file.Filename, err)
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] saveImage: failed to save file %s: %v", fullPath, err)
		return "", err
	}

	return "/images/" + filename, nil
}
