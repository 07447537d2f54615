package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"katalog/internal/media"
	"katalog/internal/models"
	"katalog/internal/repositories"
)

// Product lifecycle event types published to the broker.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher publishes product lifecycle events. Satisfied by
// *rabbitmq.Client. Publishing is best-effort; failures never fail the
// catalog operation that triggered them.
type EventPublisher interface {
	PublishProductEvent(eventType string, data map[string]interface{}) error
}

// ProductInput carries the form fields of a create or update request.
// An empty string means the field was not supplied.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       string
}

// ProductService handles validation, asset-upload orchestration, and the
// CRUD/search business logic for products.
type ProductService struct {
	repo     repositories.ProductRepository
	uploader media.Uploader
	events   EventPublisher // may be nil when the broker is disabled
	folder   string
}

// NewProductService creates a new ProductService. folder is the logical
// media-store bucket that product images are uploaded into.
func NewProductService(repo repositories.ProductRepository, uploader media.Uploader, events EventPublisher, folder string) *ProductService {
	return &ProductService{
		repo:     repo,
		uploader: uploader,
		events:   events,
		folder:   folder,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchProducts returns products whose name or description contains the
// query, matched case-insensitively. An empty query is a validation failure.
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &models.ValidationError{Fields: []string{"q"}}
	}
	return s.repo.Search(ctx, query)
}

// CreateProduct validates the input, uploads each supplied image slot, and
// persists the record. Every missing or malformed field is collected before
// failing, not just the first one. If persistence fails after uploads
// succeeded, the uploaded assets are deleted best-effort so they do not
// linger as orphans.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput, images []*media.Payload) (*models.Product, error) {
	var missing []string
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if !models.ValidCategory(input.Category) {
		missing = append(missing, "category")
	}
	price, err := strconv.ParseFloat(input.Price, 64)
	if input.Price == "" || err != nil || price < 0 {
		missing = append(missing, "price")
	}
	if len(images) == 0 || images[0] == nil {
		missing = append(missing, "image1")
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{Fields: missing}
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       price,
	}

	uploaded, err := s.uploadSlots(ctx, product, images)
	if err != nil {
		s.cleanupAssets(ctx, uploaded)
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		// The assets are already remote; reclaim them before reporting.
		s.cleanupAssets(ctx, uploaded)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publishEvent(EventProductCreated, product)
	return product, nil
}

// UpdateProduct overwrites the stored record with the supplied fields;
// omitted fields retain their previous values. New image uploads run before
// the replaced assets are deleted, so the record never points at an asset
// that is already gone.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input ProductInput, images []*media.Payload) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var invalid []string
	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Category != "" {
		if !models.ValidCategory(input.Category) {
			invalid = append(invalid, "category")
		} else {
			product.Category = input.Category
		}
	}
	if input.Price != "" {
		price, err := strconv.ParseFloat(input.Price, 64)
		if err != nil || price < 0 {
			invalid = append(invalid, "price")
		} else {
			product.Price = price
		}
	}
	if len(invalid) > 0 {
		return nil, &models.ValidationError{Fields: invalid}
	}

	var replaced []string
	for i, payload := range images {
		if i >= models.ImageSlotCount {
			break
		}
		if payload == nil {
			continue
		}
		url, err := s.uploader.Upload(ctx, payload, s.folder)
		if err != nil {
			return nil, &models.UploadError{Slot: models.ImageSlotName(i), Err: err}
		}
		if old := product.ImageSlot(i); old != "" {
			replaced = append(replaced, old)
		}
		product.SetImageSlot(i, url)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	// Only now is it safe to drop the assets the record no longer references.
	s.cleanupAssets(ctx, replaced)

	s.publishEvent(EventProductUpdated, product)
	return product, nil
}

// DeleteProduct removes the record after requesting best-effort deletion of
// every slot asset, and returns the deleted record's data.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cleanupAssets(ctx, product.ImageURLs())

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.publishEvent(EventProductDeleted, product)
	return product, nil
}

// uploadSlots uploads each non-nil payload and stores the resulting URL in
// the matching slot. It returns the URLs uploaded so far; on error the caller
// decides what to do with them.
func (s *ProductService) uploadSlots(ctx context.Context, product *models.Product, images []*media.Payload) ([]string, error) {
	var uploaded []string
	for i, payload := range images {
		if i >= models.ImageSlotCount {
			break
		}
		if payload == nil {
			continue
		}
		url, err := s.uploader.Upload(ctx, payload, s.folder)
		if err != nil {
			return uploaded, &models.UploadError{Slot: models.ImageSlotName(i), Err: err}
		}
		product.SetImageSlot(i, url)
		uploaded = append(uploaded, url)
	}
	return uploaded, nil
}

// cleanupAssets requests remote deletion of each asset. Failures are logged
// and swallowed; catalog operations never fail because remote cleanup did.
func (s *ProductService) cleanupAssets(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.Delete(ctx, url); err != nil {
			log.Printf("Failed to delete asset %s: %v", url, err)
		}
	}
}

// publishEvent sends a product lifecycle event to the broker, if one is
// configured. Publish failures are logged and swallowed.
func (s *ProductService) publishEvent(eventType string, product *models.Product) {
	if s.events == nil {
		return
	}
	data := map[string]interface{}{
		"event":      eventType,
		"product_id": product.ID.Hex(),
		"name":       product.Name,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishProductEvent(eventType, data); err != nil {
		log.Printf("Failed to publish %s event for product %s: %v", eventType, product.ID.Hex(), err)
	}
}
