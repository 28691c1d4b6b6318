package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"economy-service/internal/database"
	"economy-service/internal/models"
	"economy-service/internal/repositories/sqliterepo"

	"github.com/google/uuid"
)

// Shared fixtures for the service tests. Every test runs against a real
// sqlite store in a temp dir, no mocks.

func newTestStore(t *testing.T) *sqliterepo.Store {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "economy.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqliterepo.NewStore(db)
}

// seedCatalog populates one set with four cards across tiers 1-3 and a
// two-slot standard pack profile.
func seedCatalog(t *testing.T, store *sqliterepo.Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.UpsertCardSet(ctx, &models.CardSet{Code: "ALP", Name: "Alpha"}); err != nil {
		t.Fatalf("failed to seed card set: %v", err)
	}

	cards := []models.Card{
		{CardID: "alp-001", SetCode: "ALP", Name: "Rusted Golem", RarityTier: 1, MarketPrice: 0.5, FallbackPrice: 0.25},
		{CardID: "alp-002", SetCode: "ALP", Name: "Moss Sprite", RarityTier: 1, MarketPrice: 0.4, FallbackPrice: 0.25},
		{CardID: "alp-003", SetCode: "ALP", Name: "Ember Drake", RarityTier: 2, MarketPrice: 2.1, FallbackPrice: 1},
		{CardID: "alp-004", SetCode: "ALP", Name: "Void Sovereign", RarityTier: 3, MarketPrice: 14, FallbackPrice: 8},
	}
	for i := range cards {
		if err := store.UpsertCard(ctx, &cards[i]); err != nil {
			t.Fatalf("failed to seed card: %v", err)
		}
	}

	slots := []models.PackSlot{
		{SetCode: "ALP", ProductCode: "standard", SlotIndex: 0, MinTier: 1, MaxTier: 1, DrawCount: 2},
		{SetCode: "ALP", ProductCode: "standard", SlotIndex: 1, MinTier: 2, MaxTier: 3, DrawCount: 1},
	}
	for i := range slots {
		if err := store.UpsertPackSlot(ctx, &slots[i]); err != nil {
			t.Fatalf("failed to seed pack slot: %v", err)
		}
	}
}

// mintInstance inserts an owned card instance directly and returns its id.
func mintInstance(t *testing.T, store *sqliterepo.Store, userID, cardID string) string {
	t.Helper()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin tx: %v", err)
	}

	inst := &models.CardInstance{
		InstanceID:  uuid.New().String(),
		CardID:      cardID,
		OwnerUserID: userID,
		MintedAt:    time.Now().UTC(),
		MintSource:  models.MintSourceAdminGrant,
		MintBatchID: uuid.New().String(),
		State:       models.InstanceStateOwned,
	}
	if err := tx.InsertCardInstance(ctx, inst); err != nil {
		t.Fatalf("failed to mint instance: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("failed to commit mint: %v", err)
	}

	return inst.InstanceID
}

// getInstance reads an instance through a short-lived transaction.
func getInstance(t *testing.T, store *sqliterepo.Store, instanceID string) *models.CardInstance {
	t.Helper()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin tx: %v", err)
	}
	defer tx.Rollback()

	inst, err := tx.GetInstance(ctx, instanceID)
	if err != nil {
		t.Fatalf("failed to get instance: %v", err)
	}

	return inst
}

// fundWallet gives a user credits through the ledger path.
func fundWallet(t *testing.T, store *sqliterepo.Store, userID string, credits int64) {
	t.Helper()

	svc := NewWalletService(store, nil)
	if _, err := svc.AdjustCredits(context.Background(), userID, credits, models.ReasonAdminGrant, "test-seed"); err != nil {
		t.Fatalf("failed to fund wallet: %v", err)
	}
}

// checkReconciliation asserts the ledger invariant: the sum of a user's
// deltas equals the wallet's current balance.
func checkReconciliation(t *testing.T, store *sqliterepo.Store, userID string) {
	t.Helper()
	ctx := context.Background()

	wallet, err := store.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("failed to get wallet: %v", err)
	}
	sum, err := store.SumLedgerDeltas(ctx, userID)
	if err != nil {
		t.Fatalf("failed to sum ledger: %v", err)
	}
	if sum != wallet.Credits {
		t.Fatalf("ledger out of balance: sum %d, credits %d", sum, wallet.Credits)
	}
}

func drawsFromCatalog(cardIDs ...string) []models.Card {
	names := map[string]models.Card{
		"alp-001": {CardID: "alp-001", SetCode: "ALP", Name: "Rusted Golem", RarityTier: 1},
		"alp-002": {CardID: "alp-002", SetCode: "ALP", Name: "Moss Sprite", RarityTier: 1},
		"alp-003": {CardID: "alp-003", SetCode: "ALP", Name: "Ember Drake", RarityTier: 2},
		"alp-004": {CardID: "alp-004", SetCode: "ALP", Name: "Void Sovereign", RarityTier: 3},
	}

	draws := make([]models.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		draws = append(draws, names[id])
	}
	return draws
}
