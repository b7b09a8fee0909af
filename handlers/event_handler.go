package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
)

type EventHandler struct {
	eventService     *services.EventService
	organizerService *services.OrganizerService
}

func NewEventHandler(eventService *services.EventService, organizerService *services.OrganizerService) *EventHandler {
	return &EventHandler{eventService: eventService, organizerService: organizerService}
}

// resolveOrganizer maps the signed-in organizer account to its profile id.
func (h *EventHandler) resolveOrganizer(r *http.Request) (int, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return 0, err
	}
	org, err := h.organizerService.GetByAccount(r.Context(), userID)
	if err != nil {
		return 0, err
	}
	return org.ID, nil
}

func (h *EventHandler) Browse(w http.ResponseWriter, r *http.Request) {
	filter := repositories.EventFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("type"); v != "" {
		eventType := models.EventType(v)
		filter.EventType = &eventType
	}
	if v := r.URL.Query().Get("eligibility"); v != "" {
		eligibility := models.Eligibility(v)
		filter.Eligibility = &eligibility
	}
	if v := r.URL.Query().Get("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	events, err := h.eventService.Browse(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil)
}

func (h *EventHandler) Trending(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.Trending(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Update(r.Context(), eventID, organizerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.eventService.Publish)
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.eventService.CancelEvent)
}

func (h *EventHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, eventID, organizerID int) (*models.Event, error)) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := fn(r.Context(), eventID, organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) SetRegistrationOpen(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Open bool `json:"open"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.SetRegistrationOpen(r.Context(), eventID, organizerID, input.Open)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), eventID, organizerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "event deleted"}, nil)
}

func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	events, err := h.eventService.ListByOrganizer(r.Context(), organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil)
}

func (h *EventHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	file, header, err := r.FormFile("poster")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("poster file is required: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		badRequestResponse(w, r, fmt.Errorf("poster must be an image, got %s", contentType))
		return
	}

	event, err := h.eventService.UploadPoster(r.Context(), eventID, organizerID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil)
}

func (h *EventHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	analytics, err := h.eventService.Analytics(r.Context(), eventID, organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"analytics": analytics}, nil)
}

func (h *EventHandler) ExportRegistrationsCSV(w http.ResponseWriter, r *http.Request) {
	organizerID, err := h.resolveOrganizer(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d-registrations.csv"`, eventID))

	if err := h.eventService.ExportRegistrationsCSV(r.Context(), eventID, organizerID, w); err != nil {
		mapServiceErrorToHTTP(w, r, err)
	}
}
