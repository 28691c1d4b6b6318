package services

import (
	"context"
	"testing"
	"time"

	"economy-service/internal/models"
)

func TestInventoryService_GetInventoryPage(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)

	mintInstance(t, store, "user-1", "alp-001")
	mintInstance(t, store, "user-1", "alp-003")
	mintInstance(t, store, "user-1", "alp-004")
	mintInstance(t, store, "someone-else", "alp-002")

	svc := NewInventoryService(store, nil, 24*time.Hour)
	ctx := context.Background()

	t.Run("pagination", func(t *testing.T) {
		page1, err := svc.GetInventoryPage(ctx, "user-1", 1, 2, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page1.Total != 3 {
			t.Fatalf("total: got %d, want 3", page1.Total)
		}
		if len(page1.Items) != 2 {
			t.Fatalf("page 1 items: got %d, want 2", len(page1.Items))
		}
		if !page1.HasMore {
			t.Fatalf("page 1 HasMore: got false, want true")
		}

		page2, err := svc.GetInventoryPage(ctx, "user-1", 2, 2, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page2.Items) != 1 {
			t.Fatalf("page 2 items: got %d, want 1", len(page2.Items))
		}
		if page2.HasMore {
			t.Fatalf("page 2 HasMore: got true, want false")
		}
	})

	t.Run("name filter", func(t *testing.T) {
		page, err := svc.GetInventoryPage(ctx, "user-1", 1, 10, "", "Drake")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 1 {
			t.Fatalf("filtered items: got %d, want 1", len(page.Items))
		}
		if page.Items[0].CardID != "alp-003" {
			t.Fatalf("filtered card: got %q, want alp-003", page.Items[0].CardID)
		}
	})

	t.Run("other users never leak in", func(t *testing.T) {
		page, err := svc.GetInventoryPage(ctx, "someone-else", 1, 10, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 1 {
			t.Fatalf("items: got %d, want 1", len(page.Items))
		}
	})

	t.Run("bad paging input falls back to defaults", func(t *testing.T) {
		page, err := svc.GetInventoryPage(ctx, "user-1", -3, 0, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Page != 1 || page.PageSize != defaultPageSize {
			t.Fatalf("paging: got page %d size %d, want 1 and %d", page.Page, page.PageSize, defaultPageSize)
		}
	})
}

func TestInventoryService_GetOverview(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)

	openAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	packs := NewPackService(store, nil, nil)
	packs.now = func() time.Time { return openAt }
	if _, err := packs.OpenPack(context.Background(), models.OpenPackRequest{
		IdempotencyKey: "ov-1",
		UserID:         "user-1",
		SetCode:        "ALP",
		ProductCode:    "standard",
		Draws:          drawsFromCatalog("alp-001", "alp-002"),
	}); err != nil {
		t.Fatalf("failed to open pack: %v", err)
	}

	svc := NewInventoryService(store, nil, 24*time.Hour)

	t.Run("inside cooldown", func(t *testing.T) {
		svc.now = func() time.Time { return openAt.Add(6 * time.Hour) }

		overview, err := svc.GetOverview(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if overview.Wallet.Credits != 25 {
			t.Fatalf("credits: got %d, want 25", overview.Wallet.Credits)
		}
		if overview.InventoryCount != 2 {
			t.Fatalf("inventory count: got %d, want 2", overview.InventoryCount)
		}
		if overview.FreePackAvailable {
			t.Fatalf("free pack available inside cooldown")
		}
		if got, want := overview.FreePackCooldownSeconds, int64(18*3600); got != want {
			t.Fatalf("cooldown seconds: got %d, want %d", got, want)
		}
	})

	t.Run("after cooldown", func(t *testing.T) {
		svc.now = func() time.Time { return openAt.Add(25 * time.Hour) }

		overview, err := svc.GetOverview(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !overview.FreePackAvailable {
			t.Fatalf("free pack not available after cooldown")
		}
		if overview.FreePackCooldownSeconds != 0 {
			t.Fatalf("cooldown seconds: got %d, want 0", overview.FreePackCooldownSeconds)
		}
	})

	t.Run("unknown user gets a zeroed overview", func(t *testing.T) {
		overview, err := svc.GetOverview(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if overview.Wallet.Credits != 0 || overview.InventoryCount != 0 {
			t.Fatalf("overview: got credits %d count %d, want zeros", overview.Wallet.Credits, overview.InventoryCount)
		}
		if !overview.FreePackAvailable {
			t.Fatalf("new user should have a free pack available")
		}
	})
}
