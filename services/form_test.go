package services

import (
	"testing"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateFormResponses(t *testing.T) {
	schema := []models.FormField{
		{Label: "Team motto", FieldType: models.FieldText, Required: true},
		{Label: "Years of experience", FieldType: models.FieldNumber},
		{Label: "T-shirt size", FieldType: models.FieldDropdown, Options: []string{"S", "M", "L"}},
		{Label: "Dietary needs", FieldType: models.FieldCheckbox, Options: []string{"veg", "vegan"}},
		{Label: "Resume", FieldType: models.FieldFile},
	}

	answer := func(q string, a any) models.FormResponse {
		return models.FormResponse{Question: q, Answer: a}
	}

	tests := []struct {
		name      string
		responses []models.FormResponse
		wantErr   bool
	}{
		{
			name:      "all valid",
			responses: []models.FormResponse{answer("Team motto", "ship it"), answer("Years of experience", 3.0), answer("T-shirt size", "M"), answer("Dietary needs", []any{"veg"})},
		},
		{
			name:      "required only",
			responses: []models.FormResponse{answer("Team motto", "ship it")},
		},
		{
			name:      "missing required field",
			responses: []models.FormResponse{answer("T-shirt size", "M")},
			wantErr:   true,
		},
		{
			name:      "unknown question",
			responses: []models.FormResponse{answer("Team motto", "ship it"), answer("Favorite color", "blue")},
			wantErr:   true,
		},
		{
			name:      "duplicate answer",
			responses: []models.FormResponse{answer("Team motto", "a"), answer("Team motto", "b")},
			wantErr:   true,
		},
		{
			name:      "empty required text",
			responses: []models.FormResponse{answer("Team motto", "   ")},
			wantErr:   true,
		},
		{
			name:      "number as string",
			responses: []models.FormResponse{answer("Team motto", "x"), answer("Years of experience", "three")},
			wantErr:   true,
		},
		{
			name:      "dropdown outside options",
			responses: []models.FormResponse{answer("Team motto", "x"), answer("T-shirt size", "XXL")},
			wantErr:   true,
		},
		{
			name:      "checkbox with invalid selection",
			responses: []models.FormResponse{answer("Team motto", "x"), answer("Dietary needs", []any{"halal"})},
			wantErr:   true,
		},
		{
			name:      "checkbox as plain bool",
			responses: []models.FormResponse{answer("Team motto", "x"), answer("Dietary needs", true)},
		},
		{
			name:      "file answer is a key string",
			responses: []models.FormResponse{answer("Team motto", "x"), answer("Resume", "uploads/resume.pdf")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormResponses(schema, tt.responses)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFormResponseInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("empty schema accepts no answers", func(t *testing.T) {
		assert.NoError(t, ValidateFormResponses(nil, nil))
		assert.Error(t, ValidateFormResponses(nil, []models.FormResponse{answer("anything", "x")}))
	})
}
