package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

const (
	// ExpiringWindow is how far ahead the daily digest looks.
	ExpiringWindow = 7 * 24 * time.Hour

	sentRetention = 30 * 24 * time.Hour
	digestNames   = 3
)

// Sender delivers one payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// Scheduler periodically sends the expiring-pantry digest and delivers
// event-driven notifications.
type Scheduler struct {
	mu       sync.RWMutex
	sender   Sender
	push     *store.PushStore
	pantry   *store.PantryStore
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(sender Sender, pushStore *store.PushStore, pantryStore *store.PantryStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sender:   sender,
		push:     pushStore,
		pantry:   pantryStore,
		logger:   logger.With("component", "push"),
		interval: 15 * time.Minute,
		now:      time.Now,
	}
}

// Start begins the scheduler loop. The first check runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	householdIDs, err := s.push.ListHouseholdIDs(ctx)
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	for _, hid := range householdIDs {
		s.checkExpiring(ctx, hid)
	}

	if err := s.push.CleanupSent(ctx, s.now().Add(-sentRetention)); err != nil {
		s.logger.Error("cleanup sent notifications", "error", err)
	}
}

// checkExpiring sends at most one expiring-items digest per household per
// day.
func (s *Scheduler) checkExpiring(ctx context.Context, householdID int64) {
	now := s.now().UTC()
	refID := "pantry-digest-" + now.Format("2006-01-02")

	sent, err := s.push.WasSent(ctx, householdID, model.NotifTypePantryExpiring, refID)
	if err != nil {
		s.logger.Error("check sent", "household_id", householdID, "error", err)
		return
	}
	if sent {
		return
	}

	items, err := s.pantry.ExpiringSoon(ctx, householdID, ExpiringWindow)
	if err != nil {
		s.logger.Error("list expiring items", "household_id", householdID, "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	payload := Payload{
		Title: "Pantry items expiring soon",
		Body:  digestBody(items, now),
		URL:   "/pantry?filter=expiring",
		Tag:   "pantry-expiring",
		TTL:   12 * time.Hour,
	}
	s.deliver(ctx, householdID, 0, model.NotifTypePantryExpiring, payload)

	if err := s.push.RecordSent(ctx, householdID, model.NotifTypePantryExpiring, refID); err != nil {
		s.logger.Error("record sent", "household_id", householdID, "error", err)
	}
}

func digestBody(items []model.PantryItem, now time.Time) string {
	if len(items) == 1 {
		it := items[0]
		if it.ExpirationDate != nil && it.ExpirationDate.Before(now) {
			return it.IngredientName + " has expired"
		}
		return it.IngredientName + " expires " + relativeDay(*it.ExpirationDate, now)
	}

	names := make([]string, 0, digestNames)
	for i := 0; i < len(items) && i < digestNames; i++ {
		names = append(names, items[i].IngredientName)
	}
	body := fmt.Sprintf("%d items expire within a week: %s", len(items), strings.Join(names, ", "))
	if len(items) > digestNames {
		body += fmt.Sprintf(" and %d more", len(items)-digestNames)
	}
	return body
}

func relativeDay(t, now time.Time) string {
	days := int(t.Sub(now).Hours() / 24)
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// NotifyShoppingItemAdded tells the other members of a household that an
// item went onto the shopping list. Called from the shopping handler.
func (s *Scheduler) NotifyShoppingItemAdded(ctx context.Context, householdID, actorID int64, itemName string) {
	payload := Payload{
		Title:   "Shopping list updated",
		Body:    fmt.Sprintf("%s was added to the shopping list", itemName),
		URL:     "/shopping",
		Tag:     "shopping-added",
		TTL:     time.Hour,
		Urgency: webpush.UrgencyLow,
	}
	s.deliver(ctx, householdID, actorID, model.NotifTypeShoppingItemAdded, payload)
}

// deliver sends payload to every subscription in the household whose
// owner has notifType enabled, skipping excludeUserID. Expired
// subscriptions are removed.
func (s *Scheduler) deliver(ctx context.Context, householdID, excludeUserID int64, notifType string, payload Payload) {
	subs, err := s.push.ListByHousehold(ctx, householdID)
	if err != nil {
		s.logger.Error("list subscriptions", "household_id", householdID, "error", err)
		return
	}

	for _, sub := range subs {
		if sub.UserID == excludeUserID {
			continue
		}
		enabled, err := s.push.IsPreferenceEnabled(ctx, sub.UserID, notifType)
		if err != nil || !enabled {
			continue
		}

		if err := s.sender.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.logger.Info("removing expired subscription", "subscription_id", sub.ID)
				if err := s.push.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
			} else {
				s.logger.Warn("send notification", "type", notifType, "subscription_id", sub.ID, "error", err)
			}
		}
	}
}
