package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"economy-service/internal/auth"
	"economy-service/internal/database"
	"economy-service/internal/models"
	"economy-service/internal/repositories/sqliterepo"
	"economy-service/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "economy.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := sqliterepo.NewStore(db)

	ctx := context.Background()
	if err := store.UpsertCardSet(ctx, &models.CardSet{Code: "ALP", Name: "Alpha"}); err != nil {
		t.Fatalf("failed to seed set: %v", err)
	}
	if err := store.UpsertCard(ctx, &models.Card{CardID: "alp-001", SetCode: "ALP", Name: "Rusted Golem", RarityTier: 1}); err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}

	mux := http.NewServeMux()
	NewEconomy(mux,
		services.NewWalletService(store, nil),
		services.NewPackService(store, nil, nil),
		services.NewTradeService(store, nil, nil),
		services.NewInventoryService(store, nil, 24*time.Hour),
	)
	NewAdmin(mux,
		services.NewAdminService(store, nil, nil),
		auth.NewTokenService("test-secret"),
	)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestOpenPackEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := models.OpenPackRequest{
		IdempotencyKey: "http-open-1",
		UserID:         "user-1",
		SetCode:        "ALP",
		ProductCode:    "standard",
		Draws:          []models.Card{{CardID: "alp-001", SetCode: "ALP", Name: "Rusted Golem", RarityTier: 1}},
	}

	resp := postJSON(t, srv.URL+"/api/v1/packs/open", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var result models.OpenResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Cards) != 1 {
		t.Fatalf("minted cards: got %d, want 1", len(result.Cards))
	}
	if result.Reward.Earned != 25 {
		t.Fatalf("earned: got %d, want 25", result.Reward.Earned)
	}

	// Missing required fields must be rejected before touching the engine.
	resp = postJSON(t, srv.URL+"/api/v1/packs/open", models.OpenPackRequest{UserID: "user-1"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("validation status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestWalletEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/users/user-1/wallet")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var wallet models.Wallet
	if err := json.NewDecoder(resp.Body).Decode(&wallet); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if wallet.UserID != "user-1" || wallet.Credits != 0 {
		t.Fatalf("wallet: got %+v, want fresh user-1 wallet", wallet)
	}
}

func TestTradeEndpointStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	// Unknown trade id maps onto 404.
	resp, err := http.Get(srv.URL + "/api/v1/trades/no-such-trade")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// Offering a card nobody owns maps onto 409.
	resp = postJSON(t, srv.URL+"/api/v1/trades", models.CreateOfferRequest{
		OfferedBy:    "alice",
		OfferedTo:    "bob",
		OfferCardIDs: []string{"no-such-instance"},
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	srv := newTestServer(t)
	tokens := auth.NewTokenService("test-secret")

	grant := models.GrantCreditsRequest{UserID: "user-1", Delta: 100}

	resp := postJSON(t, srv.URL+"/api/v1/admin/grants/credits", grant, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status: got %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	badToken, err := auth.NewTokenService("wrong-secret").IssueToken("admin-1", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	resp = postJSON(t, srv.URL+"/api/v1/admin/grants/credits", grant, map[string]string{
		"Authorization": "Bearer " + badToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status: got %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	goodToken, err := tokens.IssueToken("admin-1", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	resp = postJSON(t, srv.URL+"/api/v1/admin/grants/credits", grant, map[string]string{
		"Authorization": "Bearer " + goodToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("good token status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var wallet models.Wallet
	if err := json.NewDecoder(resp.Body).Decode(&wallet); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if wallet.Credits != 100 {
		t.Fatalf("granted credits: got %d, want 100", wallet.Credits)
	}
}
