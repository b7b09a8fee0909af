package services

import (
	"fmt"

	"github.com/google/uuid"
)

const qrCodeEndpoint = "https://api.qrserver.com/v1/create-qr-code/"

// TicketIssuer mints ticket identifiers with a matching QR code URL.
type TicketIssuer interface {
	Issue() (ticketID string, qrCodeURL string)
}

type ticketService struct{}

func NewTicketService() TicketIssuer {
	return &ticketService{}
}

func (s *ticketService) Issue() (string, string) {
	id := uuid.NewString()
	return id, fmt.Sprintf("%s?size=200x200&data=%s", qrCodeEndpoint, id)
}
