package usecase

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yourusername/productsync/internal/domain/entity"
)

// MinNameLength shortest accepted product name, in characters
const MinNameLength = 3

// ValidateProductInput trims the input and checks it. The returned input is
// the normalised value to store.
func ValidateProductInput(in entity.ProductInput) (entity.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, &entity.ValidationError{Field: "name", Message: "product name is required"}
	}
	if utf8.RuneCountInString(in.Name) < MinNameLength {
		return in, &entity.ValidationError{Field: "name", Message: "name must be at least 3 characters long"}
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price <= 0 {
		return in, &entity.ValidationError{Field: "price", Message: "price must be a number greater than 0"}
	}

	return in, nil
}
