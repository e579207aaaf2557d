package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/productsync/internal/domain/entity"
)

func TestValidateProductInput(t *testing.T) {
	tests := []struct {
		name  string
		in    entity.ProductInput
		field string
	}{
		{"empty name", entity.ProductInput{Name: "   ", Price: 10}, "name"},
		{"short name", entity.ProductInput{Name: "ab", Price: 10}, "name"},
		{"zero price", entity.ProductInput{Name: "Mouse", Price: 0}, "price"},
		{"negative price", entity.ProductInput{Name: "Mouse", Price: -5}, "price"},
		{"nan price", entity.ProductInput{Name: "Mouse", Price: math.NaN()}, "price"},
		{"infinite price", entity.ProductInput{Name: "Mouse", Price: math.Inf(1)}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateProductInput(tt.in)

			var validationErr *entity.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestValidateProductInput_TrimsFields(t *testing.T) {
	in, err := ValidateProductInput(entity.ProductInput{Name: "  Café ", Price: 2.5, Description: " hot "})
	require.NoError(t, err)

	assert.Equal(t, "Café", in.Name)
	assert.Equal(t, "hot", in.Description)
}

func TestValidateProductInput_CountsCharactersNotBytes(t *testing.T) {
	_, err := ValidateProductInput(entity.ProductInput{Name: "ñá", Price: 1})
	assert.Error(t, err)

	_, err = ValidateProductInput(entity.ProductInput{Name: "ñáé", Price: 1})
	assert.NoError(t, err)
}
