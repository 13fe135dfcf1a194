package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/model"
)

func setupPushTestDB(t *testing.T) (*PushStore, int64, int64) {
	t.Helper()
	db := openTestDB(t)
	userID, householdID := seedHousehold(t, db, "alice")
	return NewPushStore(db), householdID, userID
}

func TestCreateSubscription(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()

	sub, err := ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()

	first, _ := ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/sub1", "old", "old", "Phone")
	second, err := ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/sub1", "new", "new", "Phone")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("upsert created new row: %d vs %d", first.ID, second.ID)
	}
	if second.P256dhKey != "new" {
		t.Errorf("p256dh = %q, want %q", second.P256dhKey, "new")
	}
}

func TestListByHousehold(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()

	ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/a", "k", "a", "")
	ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/b", "k", "a", "")

	subs, err := ps.ListByHousehold(ctx, hid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("len = %d, want 2", len(subs))
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()
	sub, _ := ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/a", "k", "a", "")

	deleted, err := ps.DeleteSubscription(ctx, sub.ID, uid+100)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Error("another user must not delete the subscription")
	}

	deleted, _ = ps.DeleteSubscription(ctx, sub.ID, uid)
	if !deleted {
		t.Error("owner delete should report true")
	}
	subs, _ := ps.ListByHousehold(ctx, hid)
	if len(subs) != 0 {
		t.Errorf("len = %d, want 0", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()
	ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/gone", "k", "a", "")

	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ := ps.ListByHousehold(ctx, hid)
	if len(subs) != 0 {
		t.Errorf("len = %d, want 0", len(subs))
	}
}

func TestListHouseholdIDs(t *testing.T) {
	ps, hid, uid := setupPushTestDB(t)
	ctx := context.Background()

	ids, _ := ps.ListHouseholdIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}
	ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/a", "k", "a", "")
	ps.CreateSubscription(ctx, uid, hid, "https://push.example.com/b", "k", "a", "")

	ids, err := ps.ListHouseholdIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != hid {
		t.Errorf("ids = %v, want [%d]", ids, hid)
	}
}

func TestPreferences(t *testing.T) {
	ps, _, uid := setupPushTestDB(t)
	ctx := context.Background()

	prefs, err := ps.GetPreferences(ctx, uid)
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if len(prefs) != len(model.NotificationTypes) {
		t.Fatalf("len = %d, want %d", len(prefs), len(model.NotificationTypes))
	}
	for _, p := range prefs {
		if !p.Enabled {
			t.Errorf("%s should default to enabled", p.NotificationType)
		}
	}

	if err := ps.SetPreference(ctx, uid, model.NotifTypePantryExpiring, false); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	enabled, _ := ps.IsPreferenceEnabled(ctx, uid, model.NotifTypePantryExpiring)
	if enabled {
		t.Error("pantry_expiring should be disabled")
	}
	enabled, _ = ps.IsPreferenceEnabled(ctx, uid, model.NotifTypeShoppingItemAdded)
	if !enabled {
		t.Error("shopping_item_added should still default to enabled")
	}

	ps.SetPreference(ctx, uid, model.NotifTypePantryExpiring, true)
	enabled, _ = ps.IsPreferenceEnabled(ctx, uid, model.NotifTypePantryExpiring)
	if !enabled {
		t.Error("pantry_expiring should be re-enabled")
	}
}

func TestSentNotificationDedup(t *testing.T) {
	ps, hid, _ := setupPushTestDB(t)
	ctx := context.Background()

	sent, _ := ps.WasSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1")
	if sent {
		t.Error("nothing recorded yet")
	}
	if err := ps.RecordSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ps.RecordSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1"); err != nil {
		t.Fatalf("duplicate record should be ignored: %v", err)
	}
	sent, _ = ps.WasSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1")
	if !sent {
		t.Error("expected sent")
	}
	sent, _ = ps.WasSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-2")
	if sent {
		t.Error("different reference should not be sent")
	}
}

func TestCleanupSent(t *testing.T) {
	ps, hid, _ := setupPushTestDB(t)
	ctx := context.Background()
	ps.RecordSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1")

	if err := ps.CleanupSent(ctx, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	sent, _ := ps.WasSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1")
	if !sent {
		t.Error("recent record should survive cleanup")
	}

	ps.CleanupSent(ctx, time.Now().Add(time.Hour))
	sent, _ = ps.WasSent(ctx, hid, model.NotifTypePantryExpiring, "pantry-1")
	if sent {
		t.Error("old record should be cleaned up")
	}
}
