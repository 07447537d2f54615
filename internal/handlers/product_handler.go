package handlers

import (
	"errors"
	"fmt"
	"log"

	"katalog/internal/media"
	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Reads are
// public; mutating routes go behind the guard middleware.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	productRoutes := router.Group("/products")
	// "/search" must be registered before "/:id" so it is not matched as an ID.
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", guard, h.HandleCreateProduct)
	productRoutes.Put("/:id", guard, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", guard, h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	if len(products) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "No products found",
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// HandleSearchProducts matches the query against product names and
// descriptions, case-insensitively.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("q"))
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Search query is required",
			})
		}
		return h.respondError(c, err)
	}
	if len(products) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "No products matched your search",
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleCreateProduct creates a new product from a multipart form carrying
// the text fields and up to five image slots (image1..image5).
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input := productInput(c)
	images, err := formImages(c)
	if err != nil {
		log.Printf("Error reading uploaded files: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	defer closeImages(images)

	created, err := h.service.CreateProduct(c.UserContext(), input, images)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": created,
	})
}

// HandleUpdateProduct overwrites the supplied fields of an existing product;
// omitted fields keep their previous values. New images replace the matching
// slots.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	input := productInput(c)
	images, err := formImages(c)
	if err != nil {
		log.Printf("Error reading uploaded files: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	defer closeImages(images)

	updated, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), input, images)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": updated,
	})
}

// HandleDeleteProduct deletes a product and returns the deleted record.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	deleted, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
		"product": deleted,
	})
}

// respondError maps service errors onto the response envelope and status code.
func (h *ProductHandler) respondError(c *fiber.Ctx, err error) error {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": validationErr.Error(),
		})
	case errors.Is(err, models.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid product ID format",
		})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Product not found",
		})
	default:
		log.Printf("Product request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
			"error":   err.Error(),
		})
	}
}

// productInput collects the product form fields from the request.
func productInput(c *fiber.Ctx) services.ProductInput {
	return services.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Price:       c.FormValue("price"),
	}
}

// formImages opens the image slot files from the multipart form. Absent slots
// stay nil; the returned slice always has one entry per slot.
func formImages(c *fiber.Ctx) ([]*media.Payload, error) {
	images := make([]*media.Payload, models.ImageSlotCount)
	for i := 0; i < models.ImageSlotCount; i++ {
		fileHeader, err := c.FormFile(models.ImageSlotName(i))
		if err != nil {
			continue // slot not supplied
		}
		file, err := fileHeader.Open()
		if err != nil {
			closeImages(images)
			return nil, fmt.Errorf("failed to read uploaded file %s: %w", fileHeader.Filename, err)
		}
		images[i] = &media.Payload{
			Reader:      file,
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}
	return images, nil
}

// closeImages releases the open multipart file handles.
func closeImages(images []*media.Payload) {
	for _, payload := range images {
		if payload != nil {
			_ = payload.Close()
		}
	}
}
