package handlers

import (
	"net/http"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
)

type ParticipantHandler struct {
	participantService  *services.ParticipantService
	registrationService *services.RegistrationService
	merchService        *services.MerchService
}

func NewParticipantHandler(
	participantService *services.ParticipantService,
	registrationService *services.RegistrationService,
	merchService *services.MerchService,
) *ParticipantHandler {
	return &ParticipantHandler{
		participantService:  participantService,
		registrationService: registrationService,
		merchService:        merchService,
	}
}

func (h *ParticipantHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	user, err := h.participantService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil)
}

func (h *ParticipantHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.participantService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil)
}

// Dashboard bundles the participant's registrations and orders.
func (h *ParticipantHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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
	orders, err := h.merchService.ListMyOrders(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"registrations": registrations,
		"orders":        orders,
	}, nil)
}

func (h *ParticipantHandler) FollowOrganizer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	organizerID, err := urlParamInt(r, "organizerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.participantService.FollowOrganizer(r.Context(), userID, organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"following": user.Following}, nil)
}

func (h *ParticipantHandler) UnfollowOrganizer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	organizerID, err := urlParamInt(r, "organizerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.participantService.UnfollowOrganizer(r.Context(), userID, organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"following": user.Following}, nil)
}

func (h *ParticipantHandler) FollowedOrganizers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	organizers, err := h.participantService.FollowedOrganizers(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"organizers": organizers}, nil)
}
