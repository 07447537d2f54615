package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories a product may belong to. Anything else is rejected on input.
const (
	CategoryCar  = "Car"
	CategoryBike = "Bike"
	CategoryBoat = "Boat"
)

// Categories lists the accepted category values in a stable order.
var Categories = []string{CategoryCar, CategoryBike, CategoryBoat}

// ValidCategory reports whether c is one of the accepted categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ImageSlotCount is the number of named image slots on a product.
const ImageSlotCount = 5

// ImageSlotName returns the field name of slot i (0-based), e.g. "image1".
func ImageSlotName(i int) string {
	return fmt.Sprintf("image%d", i+1)
}

// Product represents a catalog item stored in the products collection.
// The ID is assigned by the store on insert and never changes afterwards.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	Price       float64            `json:"price" bson:"price"`
	Image1      string             `json:"image1,omitempty" bson:"image1,omitempty"`
	Image2      string             `json:"image2,omitempty" bson:"image2,omitempty"`
	Image3      string             `json:"image3,omitempty" bson:"image3,omitempty"`
	Image4      string             `json:"image4,omitempty" bson:"image4,omitempty"`
	Image5      string             `json:"image5,omitempty" bson:"image5,omitempty"`
}

// ImageSlot returns the URL stored in slot i (0-based), or "" when the slot
// is empty or out of range.
func (p *Product) ImageSlot(i int) string {
	switch i {
	case 0:
		return p.Image1
	case 1:
		return p.Image2
	case 2:
		return p.Image3
	case 3:
		return p.Image4
	case 4:
		return p.Image5
	}
	return ""
}

// SetImageSlot stores url in slot i (0-based). Out-of-range slots are ignored.
func (p *Product) SetImageSlot(i int, url string) {
	switch i {
	case 0:
		p.Image1 = url
	case 1:
		p.Image2 = url
	case 2:
		p.Image3 = url
	case 3:
		p.Image4 = url
	case 4:
		p.Image5 = url
	}
}

// ImageURLs returns the URLs of all non-empty slots in slot order.
func (p *Product) ImageURLs() []string {
	var urls []string
	for i := 0; i < ImageSlotCount; i++ {
		if url := p.ImageSlot(i); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
