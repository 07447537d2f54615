package models_test

import (
	"testing"

	"katalog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	assert.True(t, models.ValidCategory("Car"))
	assert.True(t, models.ValidCategory("Bike"))
	assert.True(t, models.ValidCategory("Boat"))

	assert.False(t, models.ValidCategory(""))
	assert.False(t, models.ValidCategory("car")) // enum values are exact
	assert.False(t, models.ValidCategory("Plane"))
	assert.False(t, models.ValidCategory("Boaty"))
}

func TestProductImageSlots(t *testing.T) {
	var p models.Product

	assert.Empty(t, p.ImageURLs())

	p.SetImageSlot(0, "https://example.com/a.jpg")
	p.SetImageSlot(2, "https://example.com/c.jpg")
	p.SetImageSlot(4, "https://example.com/e.jpg")
	p.SetImageSlot(7, "https://example.com/out-of-range.jpg") // ignored

	assert.Equal(t, "https://example.com/a.jpg", p.Image1)
	assert.Equal(t, "https://example.com/a.jpg", p.ImageSlot(0))
	assert.Empty(t, p.ImageSlot(1))
	assert.Equal(t, "https://example.com/c.jpg", p.ImageSlot(2))
	assert.Empty(t, p.ImageSlot(7))

	// URLs come back in slot order with gaps skipped
	assert.Equal(t, []string{
		"https://example.com/a.jpg",
		"https://example.com/c.jpg",
		"https://example.com/e.jpg",
	}, p.ImageURLs())
}

func TestImageSlotName(t *testing.T) {
	assert.Equal(t, "image1", models.ImageSlotName(0))
	assert.Equal(t, "image5", models.ImageSlotName(4))
}
