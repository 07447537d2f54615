package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"katalog/internal/handlers"
	"katalog/internal/media"
	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUploader is an in-memory stand-in for the Cloudinary uploader.
type fakeUploader struct {
	mu      sync.Mutex
	counter int
	deleted []string
}

func (f *fakeUploader) Upload(ctx context.Context, payload *media.Payload, folder string) (string, error) {
	// Drain the reader like a real transfer would
	if _, err := io.Copy(io.Discard, payload.Reader); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return fmt.Sprintf("https://res.cloudinary.com/test/image/upload/v1/%s/asset-%d.jpg", folder, f.counter), nil
}

func (f *fakeUploader) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

// setupApp sets up a Fiber app for testing with in-memory repositories and a
// fake uploader, wired exactly like main.
func setupApp() (*fiber.App, *repositories.MockProductRepository, *fakeUploader) {
	productRepo := repositories.NewMockProductRepository()
	userRepo := repositories.NewMockUserRepository()
	uploader := &fakeUploader{}

	productService := services.NewProductService(productRepo, uploader, nil, "products")
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService))

	return app, productRepo, uploader
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// decodeBody decodes a JSON response envelope into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// signupForToken registers a fresh user and returns a valid session token.
func signupForToken(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	payload := map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	}
	jsonBody, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// multipartBody builds a multipart form with the given text fields and fake
// image files keyed by slot name.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile(name, name+".jpg")
		assert.NoError(t, err)
		_, err = part.Write(data)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAuthSignupAndLogin(t *testing.T) {
	app, _, _ := setupApp()

	// Signup issues a token
	token := signupForToken(t, app, "auth@example.com")
	assert.NotEmpty(t, token)

	// Duplicate signup is rejected
	payload := map[string]string{
		"name":     "Test User",
		"email":    "auth@example.com",
		"password": "password123",
	}
	jsonBody, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User already exists", body["message"])

	// Login with the right password succeeds
	login := map[string]string{"email": "auth@example.com", "password": "password123"}
	jsonBody, _ = json.Marshal(login)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	// Wrong password and unknown email produce the same response
	for _, login := range []map[string]string{
		{"email": "auth@example.com", "password": "wrongpassword"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		jsonBody, _ = json.Marshal(login)
		req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body = decodeBody(t, resp)
		assert.Equal(t, "Invalid credentials", body["message"])
	}
}

func TestProductLifecycle(t *testing.T) {
	app, _, uploader := setupApp()
	token := signupForToken(t, app, "lifecycle@example.com")

	// --- Create ---
	form, contentType := multipartBody(t, map[string]string{
		"name":        "Model T",
		"description": "classic",
		"category":    "Car",
		"price":       "1000",
	}, map[string][]byte{"image1": []byte("fake image bytes")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	created := body["product"].(map[string]interface{})
	productID := created["id"].(string)
	assert.NotEmpty(t, productID)
	assert.Equal(t, "Model T", created["name"])
	assert.Equal(t, 1000.0, created["price"])
	assert.NotEmpty(t, created["image1"])

	// --- Get by ID round-trips the created fields ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	fetched := body["product"].(map[string]interface{})
	assert.Equal(t, created, fetched)

	// --- List contains it ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["products"], 1)

	// --- Update only the price; omitted fields keep their values ---
	form, contentType = multipartBody(t, map[string]string{"price": "250"}, nil)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/products/"+productID, form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	updated := body["product"].(map[string]interface{})
	assert.Equal(t, productID, updated["id"])
	assert.Equal(t, "Model T", updated["name"])
	assert.Equal(t, 250.0, updated["price"])
	assert.Equal(t, created["image1"], updated["image1"])

	// --- Replace the image; the old asset is cleaned up ---
	oldImage := created["image1"].(string)
	form, contentType = multipartBody(t, nil, map[string][]byte{"image1": []byte("new image bytes")})
	req = httptest.NewRequest(http.MethodPut, "/api/v1/products/"+productID, form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	replaced := body["product"].(map[string]interface{})
	assert.NotEqual(t, oldImage, replaced["image1"])
	assert.Contains(t, uploader.deleted, oldImage)

	// --- Delete returns the removed record ---
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+productID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Product deleted successfully", body["message"])
	deleted := body["product"].(map[string]interface{})
	assert.Equal(t, productID, deleted["id"])
	assert.Contains(t, uploader.deleted, replaced["image1"].(string))

	// --- Gone afterwards ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Product not found", body["message"])
}

func TestProductValidationAndIDFailures(t *testing.T) {
	app, _, _ := setupApp()
	token := signupForToken(t, app, "validation@example.com")

	// Missing category is reported among the missing fields
	form, contentType := multipartBody(t, map[string]string{
		"name":        "Model T",
		"description": "classic",
		"price":       "1000",
	}, map[string][]byte{"image1": []byte("fake image bytes")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "category")

	// Every missing field is collected in one response
	form, contentType = multipartBody(t, nil, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	for _, field := range []string{"name", "description", "category", "price", "image1"} {
		assert.Contains(t, body["message"], field)
	}

	// A category outside the enum is rejected
	form, contentType = multipartBody(t, map[string]string{
		"name":        "Glider",
		"description": "unpowered",
		"category":    "Plane",
		"price":       "5000",
	}, map[string][]byte{"image1": []byte("fake image bytes")})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", form)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed ID is rejected before any lookup
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Invalid product ID format", body["message"])

	// Deleting a nonexistent product is a 404
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+primitive.NewObjectID().Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Product not found", body["message"])
}

func TestProductListEmptyAndSearch(t *testing.T) {
	app, productRepo, _ := setupApp()

	// Empty catalog reads as a not-found condition
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "No products found", body["message"])

	// Seed directly through the repository
	seed := []models.Product{
		{Name: "Car Deluxe", Description: "plush interior", Category: models.CategoryCar, Price: 900},
		{Name: "Trail Bike", Description: "all-terrain", Category: models.CategoryBike, Price: 300},
	}
	for i := range seed {
		assert.NoError(t, productRepo.Create(context.Background(), &seed[i]))
	}

	// Case-insensitive match against the name
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/search?q=car", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	results := body["products"].([]interface{})
	assert.Len(t, results, 1)
	assert.Equal(t, "Car Deluxe", results[0].(map[string]interface{})["name"])

	// Match against the description
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/search?q=TERRAIN", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["products"], 1)

	// Missing query fails validation
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/search", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Search query is required", body["message"])

	// No match is a not-found condition
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/search?q=zeppelin", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "No products matched your search", body["message"])
}

func TestProductMutationsRequireAuth(t *testing.T) {
	app, _, _ := setupApp()

	form, contentType := multipartBody(t, map[string]string{"name": "Unauthorized"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", form)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+primitive.NewObjectID().Hex(), nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Reads stay public
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode) // empty catalog, not 401
	resp.Body.Close()
}
