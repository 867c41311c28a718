package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"go-coffee-pos/internal/catalog"
	"go-coffee-pos/internal/models"
	"go-coffee-pos/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: /api/products ---
// The register grid: active products, ?category_id= and ?search= narrow it.
func (h *Handler) ListProducts(c *gin.Context) {
	var f catalog.Filter
	if s := c.Query("category_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		f.CategoryID = uint(id)
	}
	f.Search = c.Query("search")

	products, err := h.Catalog.ActiveProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/admin/products ---
// Every product, active or not, with its category.
func (h *Handler) AdminProducts(c *gin.Context) {
	var products []models.Product
	if err := h.DB.WithContext(c.Request.Context()).Preload("Category").Order("name asc").Find(&products).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	CategoryID  *uint   `json:"category_id"`
	ImageURL    string  `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
}

func (h *Handler) validateProduct(c *gin.Context, in *ProductInput) error {
	in.Name = trimmed(in.Name)
	if in.Name == "" {
		return invalid("Product name is required")
	}
	if in.Price < 0 {
		return invalid("Price cannot be negative")
	}
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}
	if in.CategoryID != nil {
		var n int64
		if err := h.DB.WithContext(c.Request.Context()).Model(&models.Category{}).Where("id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("Category does not exist")
		}
	}
	return nil
}

// --- POST: /api/products ---
func (h *Handler) AddProduct(c *gin.Context) {
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := h.validateProduct(c, &in); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	product := models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		ImageURL:    in.ImageURL,
		IsActive:    true,
	}
	if err := h.DB.WithContext(ctx).Create(&product).Error; err != nil {
		respondError(c, err)
		return
	}
	// gorm skips false on create because of the column default.
	if in.IsActive != nil && !*in.IsActive {
		if err := h.DB.WithContext(ctx).Model(&product).Update("is_active", false).Error; err != nil {
			respondError(c, err)
			return
		}
	}
	h.Catalog.Invalidate(ctx)
	c.JSON(http.StatusCreated, product)
}

// --- PUT: /api/products/:id ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := h.validateProduct(c, &in); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		respondError(c, err)
		return
	}
	updates := map[string]interface{}{
		"name":        in.Name,
		"price":       in.Price,
		"description": in.Description,
		"category_id": in.CategoryID,
		"image_url":   in.ImageURL,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := h.DB.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		respondError(c, err)
		return
	}
	h.Catalog.Invalidate(ctx)
	h.DB.WithContext(ctx).Preload("Category").First(&product, id)
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: /api/products/:id ---
// Products that appear on past sales are kept; deactivate them instead.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	var sold int64
	if err := h.DB.WithContext(ctx).Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&sold).Error; err != nil {
		respondError(c, err)
		return
	}
	if sold > 0 {
		respondError(c, conflict("Could not delete product. It is linked to past sales; deactivate it instead."))
		return
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductIngredient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.Catalog.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- GET: /api/products/:id/recipe ---
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var lines []models.ProductIngredient
	if err := h.DB.WithContext(c.Request.Context()).Preload("Ingredient").Where("product_id = ?", id).Order("id").Find(&lines).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

type RecipeLineInput struct {
	IngredientID     uint    `json:"ingredient_id" binding:"required"`
	QuantityRequired float64 `json:"quantity_required"`
}

type RecipeInput struct {
	Lines []RecipeLineInput `json:"lines"`
}

// --- PUT: /api/products/:id/recipe ---
// Replaces the whole recipe in one transaction.
func (h *Handler) ReplaceRecipe(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var in RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	seen := make(map[uint]bool, len(in.Lines))
	ids := make([]uint, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.QuantityRequired < 0 {
			respondError(c, invalid("Recipe quantity cannot be negative"))
			return
		}
		if seen[l.IngredientID] {
			respondError(c, invalid("Each ingredient may appear once in a recipe"))
			return
		}
		seen[l.IngredientID] = true
		ids = append(ids, l.IngredientID)
	}

	ctx := c.Request.Context()
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errNotFound
		}
		if len(ids) > 0 {
			if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
				return err
			}
			if int(n) != len(ids) {
				return invalid("Unknown ingredient in recipe")
			}
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.ProductIngredient{}).Error; err != nil {
			return err
		}
		if len(in.Lines) == 0 {
			return nil
		}
		rows := make([]models.ProductIngredient, 0, len(in.Lines))
		for _, l := range in.Lines {
			rows = append(rows, models.ProductIngredient{ProductID: id, IngredientID: l.IngredientID, QuantityRequired: l.QuantityRequired})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	var lines []models.ProductIngredient
	h.DB.WithContext(ctx).Preload("Ingredient").Where("product_id = ?", id).Order("id").Find(&lines)
	c.JSON(http.StatusOK, lines)
}

const maxUploadSize = 5 << 20

var uploadFolders = map[string]bool{
	"product-images":  true,
	"category-images": true,
}

// --- UPLOAD: /api/upload ---
// Accepts one image in the "file" field and returns its public URL.
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is larger than 5 MB"})
		return
	}
	folder := c.DefaultPostForm("folder", "product-images")
	if !uploadFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown upload folder"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer f.Close()

	// Trust the bytes, not the client's Content-Type.
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := storage.ImageExt(contentType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, WEBP or GIF images are allowed"})
		return
	}

	key := storage.ImageKey(folder, ext, h.Now())
	url, err := h.Storage.Put(c.Request.Context(), key, io.MultiReader(bytes.NewReader(head), f), contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     url,
		"key":     key,
	})
}
