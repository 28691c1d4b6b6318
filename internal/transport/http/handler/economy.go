package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"economy-service/internal/models"
	"economy-service/internal/repositories/sqliterepo"
	"economy-service/internal/services"

	"github.com/go-playground/validator"
)

type Economy struct {
	wallets   *services.WalletService
	packs     *services.PackService
	trades    *services.TradeService
	inventory *services.InventoryService
	validate  *validator.Validate
}

func NewEconomy(mux *http.ServeMux, wallets *services.WalletService, packs *services.PackService, trades *services.TradeService, inventory *services.InventoryService) *Economy {
	h := &Economy{
		wallets:   wallets,
		packs:     packs,
		trades:    trades,
		inventory: inventory,
		validate:  validator.New(),
	}

	mux.HandleFunc("POST /api/v1/packs/open", h.openPack)
	mux.HandleFunc("GET /api/v1/users/{userId}/wallet", h.getWallet)
	mux.HandleFunc("GET /api/v1/users/{userId}/ledger", h.getLedger)
	mux.HandleFunc("GET /api/v1/users/{userId}/inventory", h.getInventory)
	mux.HandleFunc("GET /api/v1/users/{userId}/overview", h.getOverview)
	mux.HandleFunc("GET /api/v1/users/{userId}/trades", h.getUserTrades)
	mux.HandleFunc("POST /api/v1/trades", h.createOffer)
	mux.HandleFunc("GET /api/v1/trades/{tradeId}", h.getTrade)
	mux.HandleFunc("POST /api/v1/trades/{tradeId}/accept", h.acceptOffer)
	mux.HandleFunc("POST /api/v1/trades/{tradeId}/reject", h.rejectOffer)
	mux.HandleFunc("POST /api/v1/trades/{tradeId}/cancel", h.cancelOffer)

	return h
}

// @Summary Open a pack
// @Description Mints the drawn cards and credits the streak-adjusted reward. Replays of a known idempotency key return the stored result.
// @Tags packs
// @Accept json
// @Produce json
// @Param request body models.OpenPackRequest true "Open request"
// @Success 200 {object} models.OpenResult
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /packs/open [post]
func (h *Economy) openPack(w http.ResponseWriter, r *http.Request) {
	var req models.OpenPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ctx := r.Context()

	var result *models.OpenResult
	var err error
	if len(req.Draws) == 0 {
		result, err = h.packs.OpenPackFromCatalog(ctx, req)
	} else {
		result, err = h.packs.OpenPack(ctx, req)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary Get wallet
// @Tags wallets
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.Wallet
// @Router /users/{userId}/wallet [get]
func (h *Economy) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if err := h.validate.Var(userID, "required"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	wallet, err := h.wallets.GetWallet(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

// @Summary List ledger entries
// @Tags wallets
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} models.LedgerEntry
// @Router /users/{userId}/ledger [get]
func (h *Economy) getLedger(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.wallets.ListLedger(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// @Summary Get inventory page
// @Tags inventory
// @Produce json
// @Param userId path string true "User ID"
// @Param page query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Param setCode query string false "Filter by set code"
// @Param name query string false "Filter by card name substring"
// @Success 200 {object} models.InventoryPage
// @Router /users/{userId}/inventory [get]
func (h *Economy) getInventory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	result, err := h.inventory.GetInventoryPage(r.Context(), userID, page, pageSize, query.Get("setCode"), query.Get("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary Get user overview
// @Tags inventory
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.Overview
// @Router /users/{userId}/overview [get]
func (h *Economy) getOverview(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	overview, err := h.inventory.GetOverview(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

// @Summary List user trades
// @Tags trades
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} models.Trade
// @Router /users/{userId}/trades [get]
func (h *Economy) getUserTrades(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trades, err := h.trades.ListTradesForUser(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	writeJSON(w, http.StatusOK, trades)
}

// @Summary Create a trade offer
// @Description Locks the offered cards and escrows the offered credits.
// @Tags trades
// @Accept json
// @Produce json
// @Param request body models.CreateOfferRequest true "Offer"
// @Success 201 {object} models.Trade
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /trades [post]
func (h *Economy) createOffer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trade, err := h.trades.CreateOffer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, trade)
}

// @Summary Get a trade
// @Description Returns the trade, lazily expiring it when past its deadline.
// @Tags trades
// @Produce json
// @Param tradeId path string true "Trade ID"
// @Success 200 {object} models.Trade
// @Failure 404 {object} map[string]interface{}
// @Router /trades/{tradeId} [get]
func (h *Economy) getTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := r.PathValue("tradeId")

	trade, err := h.trades.GetTrade(r.Context(), tradeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

// @Summary Accept a trade offer
// @Tags trades
// @Accept json
// @Produce json
// @Param tradeId path string true "Trade ID"
// @Param request body models.TradeActionRequest true "Accepter"
// @Success 200 {object} models.Trade
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /trades/{tradeId}/accept [post]
func (h *Economy) acceptOffer(w http.ResponseWriter, r *http.Request) {
	h.tradeAction(w, r, func(tradeID, userID string, req *http.Request) (*models.Trade, error) {
		return h.trades.AcceptOffer(req.Context(), tradeID, userID)
	})
}

// @Summary Reject a trade offer
// @Tags trades
// @Accept json
// @Produce json
// @Param tradeId path string true "Trade ID"
// @Param request body models.TradeActionRequest true "Rejecter"
// @Success 200 {object} models.Trade
// @Router /trades/{tradeId}/reject [post]
func (h *Economy) rejectOffer(w http.ResponseWriter, r *http.Request) {
	h.tradeAction(w, r, func(tradeID, userID string, req *http.Request) (*models.Trade, error) {
		return h.trades.RejectOffer(req.Context(), tradeID, userID)
	})
}

// @Summary Cancel a trade offer
// @Tags trades
// @Accept json
// @Produce json
// @Param tradeId path string true "Trade ID"
// @Param request body models.TradeActionRequest true "Canceller"
// @Success 200 {object} models.Trade
// @Router /trades/{tradeId}/cancel [post]
func (h *Economy) cancelOffer(w http.ResponseWriter, r *http.Request) {
	h.tradeAction(w, r, func(tradeID, userID string, req *http.Request) (*models.Trade, error) {
		return h.trades.CancelOffer(req.Context(), tradeID, userID)
	})
}

func (h *Economy) tradeAction(w http.ResponseWriter, r *http.Request, action func(tradeID, userID string, r *http.Request) (*models.Trade, error)) {
	tradeID := r.PathValue("tradeId")

	var req models.TradeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trade, err := action(tradeID, req.UserID, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(statusCode),
		"message": message,
		"code":    statusCode,
	}

	writeJSON(w, statusCode, errorResponse)
}

// writeServiceError maps engine error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sqliterepo.ErrTradeNotFound),
		errors.Is(err, sqliterepo.ErrWalletNotFound),
		errors.Is(err, sqliterepo.ErrInstanceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotAuthorizedForTrade):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUnknownCardID),
		errors.Is(err, services.ErrNoCardsForSet):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInsufficientCredits),
		errors.Is(err, services.ErrCardUnavailable),
		errors.Is(err, services.ErrTradeNotPending),
		errors.Is(err, services.ErrTradeExpired),
		errors.Is(err, services.ErrTradingLocked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal error: %v", err))
	}
}
