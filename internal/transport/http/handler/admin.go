package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"economy-service/internal/auth"
	"economy-service/internal/models"
	"economy-service/internal/services"

	"github.com/go-playground/validator"
)

type Admin struct {
	admin    *services.AdminService
	tokens   *auth.TokenService
	validate *validator.Validate
}

func NewAdmin(mux *http.ServeMux, admin *services.AdminService, tokens *auth.TokenService) *Admin {
	h := &Admin{
		admin:    admin,
		tokens:   tokens,
		validate: validator.New(),
	}

	mux.HandleFunc("PUT /api/v1/admin/settings/multiplier", h.requireAdmin(h.setMultiplier))
	mux.HandleFunc("PUT /api/v1/admin/settings/trade-lock", h.requireAdmin(h.setTradeLocked))
	mux.HandleFunc("POST /api/v1/admin/grants/credits", h.requireAdmin(h.grantCredits))
	mux.HandleFunc("POST /api/v1/admin/grants/cards", h.requireAdmin(h.grantCards))
	mux.HandleFunc("GET /api/v1/admin/events", h.requireAdmin(h.listEvents))

	return h
}

// requireAdmin checks the Bearer token and hands the admin id to the handler.
func (h *Admin) requireAdmin(next func(w http.ResponseWriter, r *http.Request, adminID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := h.tokens.ValidateToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next(w, r, claims.AdminID)
	}
}

// @Summary Set an economy multiplier
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SetMultiplierRequest true "Multiplier"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /admin/settings/multiplier [put]
func (h *Admin) setMultiplier(w http.ResponseWriter, r *http.Request, adminID string) {
	var req models.SetMultiplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.admin.SetMultiplier(r.Context(), adminID, req.Key, req.Value); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Toggle the global trade lock
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SetTradeLockedRequest true "Lock state"
// @Success 204
// @Failure 401 {object} map[string]interface{}
// @Router /admin/settings/trade-lock [put]
func (h *Admin) setTradeLocked(w http.ResponseWriter, r *http.Request, adminID string) {
	var req models.SetTradeLockedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.admin.SetTradeLocked(r.Context(), adminID, req.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Grant or revoke credits
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GrantCreditsRequest true "Grant"
// @Success 200 {object} models.Wallet
// @Failure 401 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /admin/grants/credits [post]
func (h *Admin) grantCredits(w http.ResponseWriter, r *http.Request, adminID string) {
	var req models.GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	wallet, err := h.admin.GrantCredits(r.Context(), adminID, req.UserID, req.Delta, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

// @Summary Grant card instances
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GrantCardsRequest true "Grant"
// @Success 200 {array} models.CardInstance
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /admin/grants/cards [post]
func (h *Admin) grantCards(w http.ResponseWriter, r *http.Request, adminID string) {
	var req models.GrantCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	instances, err := h.admin.GrantCards(r.Context(), adminID, req.UserID, req.CardIDs, req.Source)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, instances)
}

// @Summary List recent admin audit events
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AdminEvent
// @Failure 401 {object} map[string]interface{}
// @Router /admin/events [get]
func (h *Admin) listEvents(w http.ResponseWriter, r *http.Request, _ string) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.admin.ListAdminEvents(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []models.AdminEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}
