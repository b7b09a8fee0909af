package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// generateInviteCode produces an 8-character uppercase hex code.
func generateInviteCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// generateTempPassword produces a 16-character hex password for provisioned
// accounts. Recipients are told to change it on first sign-in.
func generateTempPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// checkRegistrationOpen gates every registration path: the event must be
// published, accepting registrations, and before its deadline.
func checkRegistrationOpen(event *models.Event, now time.Time) error {
	if event.Status != models.EventPublished {
		return ErrEventNotPublished
	}
	if !event.RegistrationOpen {
		return ErrRegistrationClosed
	}
	if now.After(event.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	return nil
}

func checkEligibility(event *models.Event, user *models.User) error {
	if event.Eligibility == models.EligibilityAll {
		return nil
	}
	if user.ParticipantType == nil {
		return ErrNotEligible
	}
	switch event.Eligibility {
	case models.EligibilityIIITOnly:
		if *user.ParticipantType != models.ParticipantIIIT {
			return ErrNotEligible
		}
	case models.EligibilityNonIIITOnly:
		if *user.ParticipantType != models.ParticipantNonIIIT {
			return ErrNotEligible
		}
	}
	return nil
}
