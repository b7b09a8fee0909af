package services

import (
	"fmt"
	"strings"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
)

// ValidateFormResponses checks responses against the event's form schema.
// Every required field needs a non-empty answer, dropdown answers must come
// from the field's options, and answers to unknown questions are rejected.
func ValidateFormResponses(schema []models.FormField, responses []models.FormResponse) error {
	byLabel := make(map[string]models.FormField, len(schema))
	for _, field := range schema {
		byLabel[field.Label] = field
	}

	answered := make(map[string]bool, len(responses))
	for _, resp := range responses {
		field, ok := byLabel[resp.Question]
		if !ok {
			return fmt.Errorf("%w: unknown question %q", ErrFormResponseInvalid, resp.Question)
		}
		if answered[resp.Question] {
			return fmt.Errorf("%w: duplicate answer for %q", ErrFormResponseInvalid, resp.Question)
		}
		answered[resp.Question] = true

		if err := validateAnswer(field, resp.Answer); err != nil {
			return err
		}
	}

	for _, field := range schema {
		if field.Required && !answered[field.Label] {
			return fmt.Errorf("%w: missing required field %q", ErrFormResponseInvalid, field.Label)
		}
	}
	return nil
}

func validateAnswer(field models.FormField, answer any) error {
	switch field.FieldType {
	case models.FieldText, models.FieldFile:
		s, ok := answer.(string)
		if !ok || (field.Required && strings.TrimSpace(s) == "") {
			return fmt.Errorf("%w: field %q expects a non-empty string", ErrFormResponseInvalid, field.Label)
		}
	case models.FieldNumber:
		switch answer.(type) {
		case float64, int:
		default:
			return fmt.Errorf("%w: field %q expects a number", ErrFormResponseInvalid, field.Label)
		}
	case models.FieldDropdown:
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%w: field %q expects a string option", ErrFormResponseInvalid, field.Label)
		}
		if !containsOption(field.Options, s) {
			return fmt.Errorf("%w: field %q has no option %q", ErrFormResponseInvalid, field.Label, s)
		}
	case models.FieldCheckbox:
		switch v := answer.(type) {
		case bool:
			if field.Required && !v {
				return fmt.Errorf("%w: field %q must be checked", ErrFormResponseInvalid, field.Label)
			}
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok || !containsOption(field.Options, s) {
					return fmt.Errorf("%w: field %q has an invalid selection", ErrFormResponseInvalid, field.Label)
				}
			}
			if field.Required && len(v) == 0 {
				return fmt.Errorf("%w: field %q requires a selection", ErrFormResponseInvalid, field.Label)
			}
		default:
			return fmt.Errorf("%w: field %q expects a boolean or option list", ErrFormResponseInvalid, field.Label)
		}
	default:
		return fmt.Errorf("%w: field %q has unknown type %q", ErrFormResponseInvalid, field.Label, field.FieldType)
	}
	return nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
