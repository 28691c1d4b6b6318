package services

import (
	"context"
	"errors"
	"testing"

	"economy-service/internal/models"
)

func TestAdminService_SetMultiplier(t *testing.T) {
	store := newTestStore(t)
	svc := NewAdminService(store, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		value   float64
		wantErr bool
	}{
		{name: "credit multiplier", key: models.SettingCreditMultiplier, value: 1.5},
		{name: "drop rate multiplier", key: models.SettingDropRateEventMultiplier, value: 3},
		{name: "unknown key rejected", key: "jackpot_multiplier", value: 2, wantErr: true},
		{name: "zero rejected", key: models.SettingCreditMultiplier, value: 0, wantErr: true},
		{name: "negative rejected", key: models.SettingCreditMultiplier, value: -1, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetMultiplier(ctx, "admin-1", tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("failed to read settings: %v", err)
	}
	if settings.CreditMultiplier != 1.5 {
		t.Fatalf("credit multiplier: got %v, want 1.5", settings.CreditMultiplier)
	}
	if settings.DropRateEventMultiplier != 3 {
		t.Fatalf("drop rate multiplier: got %v, want 3", settings.DropRateEventMultiplier)
	}
}

func TestAdminService_GrantCredits(t *testing.T) {
	store := newTestStore(t)
	svc := NewAdminService(store, nil, nil)
	ctx := context.Background()

	wallet, err := svc.GrantCredits(ctx, "admin-1", "user-1", 500, "event prize")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Credits != 500 {
		t.Fatalf("balance after grant: got %d, want 500", wallet.Credits)
	}

	wallet, err = svc.GrantCredits(ctx, "admin-1", "user-1", -200, "penalty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Credits != 300 {
		t.Fatalf("balance after revoke: got %d, want 300", wallet.Credits)
	}

	// A revoke below zero is rejected like any other spend.
	if _, err := svc.GrantCredits(ctx, "admin-1", "user-1", -1000, "too much"); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("over-revoke: got %v, want %v", err, ErrInsufficientCredits)
	}

	entries, err := store.ListLedgerEntries(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries: got %d, want 2", len(entries))
	}

	reasons := map[models.LedgerReason]bool{}
	for _, e := range entries {
		reasons[e.Reason] = true
	}
	if !reasons[models.ReasonAdminGrant] || !reasons[models.ReasonAdminRevoke] {
		t.Fatalf("ledger reasons: got %v, want admin_grant and admin_revoke", reasons)
	}

	events, err := svc.ListAdminEvents(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list admin events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("admin events: got %d, want 2", len(events))
	}

	checkReconciliation(t, store, "user-1")
}

func TestAdminService_GrantCards(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	svc := NewAdminService(store, nil, nil)
	ctx := context.Background()

	instances, err := svc.GrantCards(ctx, "admin-1", "user-1", []string{"alp-001", "alp-004"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("granted instances: got %d, want 2", len(instances))
	}
	for _, inst := range instances {
		if inst.MintSource != models.MintSourceAdminGrant {
			t.Fatalf("mint source: got %q, want %q", inst.MintSource, models.MintSourceAdminGrant)
		}
		if inst.MintBatchID != instances[0].MintBatchID {
			t.Fatalf("batch id differs within one grant")
		}
	}

	count, err := store.CountInstancesByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to count instances: %v", err)
	}
	if count != 2 {
		t.Fatalf("instance count: got %d, want 2", count)
	}
}

func TestAdminService_GrantCards_UnknownCardAbortsBatch(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	svc := NewAdminService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.GrantCards(ctx, "admin-1", "user-1", []string{"alp-001", "not-a-card", "alp-002"}, "")
	if !errors.Is(err, ErrUnknownCardID) {
		t.Fatalf("error: got %v, want %v", err, ErrUnknownCardID)
	}

	// The valid cards before the bad one must not have been minted.
	count, err := store.CountInstancesByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to count instances: %v", err)
	}
	if count != 0 {
		t.Fatalf("instance count after aborted grant: got %d, want 0", count)
	}
}
