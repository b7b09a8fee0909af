package handlers

import (
	"net/http"
	"strconv"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
)

type OrganizerHandler struct {
	organizerService *services.OrganizerService
}

func NewOrganizerHandler(organizerService *services.OrganizerService) *OrganizerHandler {
	return &OrganizerHandler{organizerService: organizerService}
}

// Provision is the admin endpoint that creates an organizer account plus
// profile and emails out the credentials.
func (h *OrganizerHandler) Provision(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.ProvisionOrganizerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	org, err := h.organizerService.Provision(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"organizer": org}, nil)
}

func (h *OrganizerHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	organizers, err := h.organizerService.List(r.Context(), includeArchived)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"organizers": organizers}, nil)
}

func (h *OrganizerHandler) Get(w http.ResponseWriter, r *http.Request) {
	organizerID, err := urlParamInt(r, "organizerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	org, err := h.organizerService.Get(r.Context(), organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"organizer": org}, nil)
}

func (h *OrganizerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.OrganizerProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	org, err := h.organizerService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"organizer": org}, nil)
}

func (h *OrganizerHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	organizerID, err := urlParamInt(r, "organizerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.OrganizerStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.organizerService.SetStatus(r.Context(), organizerID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "organizer status updated"}, nil)
}

func (h *OrganizerHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	req, err := h.organizerService.RequestPasswordReset(r.Context(), userID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"request": req}, nil)
}

func (h *OrganizerHandler) ListResetRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.organizerService.ListResetRequests(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil)
}

func (h *OrganizerHandler) ResolveResetRequest(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	requestID, err := urlParamInt(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Approve bool `json:"approve"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	req, err := h.organizerService.ResolveResetRequest(r.Context(), requestID, adminID, input.Approve)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"request": req}, nil)
}
