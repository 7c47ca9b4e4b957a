package handler

import (
	"net/http"
	"strconv"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/database"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        *string     `json:"name"`
	Model       *string     `json:"model"`
	ReleaseDate *model.Date `json:"release_date"`
}

// CreateProduct creates a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("product", "create")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == nil || *req.Name == "" {
		log.Warn("Missing name in product creation request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.ReleaseDate == nil || req.ReleaseDate.IsZero() {
		log.Warn("Missing release date in product creation request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "release_date is required"})
	}

	product := model.Product{
		Name:        *req.Name,
		Model:       strValue(req.Model),
		ReleaseDate: *req.ReleaseDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&product); result.Error != nil {
		log.Error("Failed to create product", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}

	log.Info("Product created",
		zap.Uint("id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// ListProducts retrieves all products ordered by id
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("product", "list")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var products []model.Product
	if result := database.GetDB().Order("id").Find(&products); result.Error != nil {
		log.Error("Failed to retrieve products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct retrieves a product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("product", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid product ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.Product
	if result := database.GetDB().First(&product, id); result.Error != nil {
		log.Warn("Product not found", zap.Uint64("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	return c.JSON(http.StatusOK, product)
}

// UpdateProduct updates an existing product with partial semantics
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("product", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid product ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var product model.Product
	if result := database.GetDB().First(&product, id); result.Error != nil {
		log.Warn("Product not found for update", zap.Uint64("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	if req.Name != nil {
		if *req.Name == "" {
			log.Warn("Empty name in product update", zap.Uint64("product_id", id))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		product.Name = *req.Name
	}
	if req.Model != nil {
		product.Model = *req.Model
	}
	if req.ReleaseDate != nil {
		if req.ReleaseDate.IsZero() {
			log.Warn("Empty release date in product update", zap.Uint64("product_id", id))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "release_date is required"})
		}
		product.ReleaseDate = *req.ReleaseDate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Save(&product); result.Error != nil {
		log.Error("Failed to update product", zap.Uint64("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}

	log.Info("Product updated", zap.Uint("id", product.ID))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("product", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid product ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	var product model.Product
	if result := database.GetDB().First(&product, id); result.Error != nil {
		log.Warn("Product not found for delete", zap.Uint64("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&product); result.Error != nil {
		log.Error("Failed to delete product", zap.Uint64("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}

	log.Info("Product deleted", zap.Uint64("product_id", id))
	return c.NoContent(http.StatusNoContent)
}
