package handlers

import (
	"net/http"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
	eventService        *services.EventService
	organizerService    *services.OrganizerService
}

func NewRegistrationHandler(
	registrationService *services.RegistrationService,
	eventService *services.EventService,
	organizerService *services.OrganizerService,
) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		eventService:        eventService,
		organizerService:    organizerService,
	}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.Register(r.Context(), eventID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil)
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Cancel(r.Context(), eventID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "registration cancelled"}, nil)
}

func (h *RegistrationHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	registrations, err := h.registrationService.ListByUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil)
}

// resolveOwnedEvent checks the caller's organizer profile owns the event.
func (h *RegistrationHandler) resolveOwnedEvent(r *http.Request) (int, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return 0, err
	}
	org, err := h.organizerService.GetByAccount(r.Context(), userID)
	if err != nil {
		return 0, err
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		return 0, err
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		return 0, err
	}
	if event.OrganizerID != org.ID {
		return 0, services.ErrForbiddenOperation
	}
	return eventID, nil
}

func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := h.resolveOwnedEvent(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil)
}

func (h *RegistrationHandler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	eventID, err := h.resolveOwnedEvent(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	registrationID, err := urlParamInt(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.MarkAttended(r.Context(), eventID, registrationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"registration": registration}, nil)
}
