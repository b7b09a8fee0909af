package handlers

import (
	"net/http"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/middleware"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/services"
)

type MerchHandler struct {
	merchService     *services.MerchService
	organizerService *services.OrganizerService
}

func NewMerchHandler(merchService *services.MerchService, organizerService *services.OrganizerService) *MerchHandler {
	return &MerchHandler{merchService: merchService, organizerService: organizerService}
}

func (h *MerchHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateOrderInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	order, err := h.merchService.CreateOrder(r.Context(), eventID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"order": order}, nil)
}

func (h *MerchHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	orderID, err := urlParamInt(r, "orderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ProofKey string `json:"proof_key"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	order, err := h.merchService.SubmitProof(r.Context(), orderID, userID, input.ProofKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil)
}

func (h *MerchHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	orders, err := h.merchService.ListMyOrders(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"orders": orders}, nil)
}

func (h *MerchHandler) ListEventOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	org, err := h.organizerService.GetByAccount(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	eventID, err := urlParamInt(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.MerchOrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		status := models.MerchOrderStatus(v)
		statusFilter = &status
	}

	orders, err := h.merchService.ListEventOrders(r.Context(), eventID, org.ID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"orders": orders}, nil)
}

func (h *MerchHandler) ReviewOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	org, err := h.organizerService.GetByAccount(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	orderID, err := urlParamInt(r, "orderID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ReviewOrderInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	order, err := h.merchService.ReviewOrder(r.Context(), orderID, userID, org.ID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil)
}
