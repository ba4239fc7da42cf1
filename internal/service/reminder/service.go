package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
)

// PlantSource exposes the plants and the reminder preferences.
type PlantSource interface {
	List(ctx context.Context, force bool) []models.Plant
	Notifications(ctx context.Context) models.NotificationPrefs
}

// Messenger delivers a text message.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Outcome describes what a reminder run did.
type Outcome struct {
	Sent    bool     `json:"sent"`
	Reason  string   `json:"reason,omitempty"`
	Plants  []string `json:"plants,omitempty"`
	Day     string   `json:"day"`
	Message string   `json:"message,omitempty"`
}

// Service sends the daily watering reminder.
type Service struct {
	plants    PlantSource
	messenger Messenger
	loc       *time.Location
	logger    *zap.Logger

	mu       sync.Mutex
	lastSent time.Time
}

// NewService wires the reminder service. messenger may be nil, in which case
// runs only report which plants are due.
func NewService(plants PlantSource, messenger Messenger, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{plants: plants, messenger: messenger, loc: loc, logger: logger}
}

// CheckAndNotify evaluates every plant at now and, when notifications are
// enabled and anything is due, sends one message naming the due plants. At
// most one reminder is sent per calendar day.
func (s *Service) CheckAndNotify(ctx context.Context, now time.Time) (Outcome, error) {
	today := watering.Day(now, s.loc)
	out := Outcome{Day: today.Format("2006-01-02")}

	prefs := s.plants.Notifications(ctx)
	if !prefs.Enabled {
		out.Reason = "notifications disabled"
		return out, nil
	}

	for _, p := range s.plants.List(ctx, true) {
		if watering.IsDue(p, today) {
			out.Plants = append(out.Plants, p.DisplayName())
		}
	}
	if len(out.Plants) == 0 {
		out.Reason = "nothing due"
		return out, nil
	}
	out.Message = Message(out.Plants)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSent.Equal(today) {
		out.Reason = "already reminded today"
		return out, nil
	}
	if s.messenger == nil || prefs.Recipient == "" {
		out.Reason = "no delivery channel"
		return out, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.messenger.SendText(sendCtx, prefs.Recipient, out.Message); err != nil {
		return out, fmt.Errorf("send reminder: %w", err)
	}

	s.lastSent = today
	out.Sent = true
	s.logger.Info("watering reminder sent", zap.String("day", out.Day), zap.Int("plants", len(out.Plants)))
	return out, nil
}

// Message is the reminder text for the given plant names.
func Message(names []string) string {
	return fmt.Sprintf("🌱 Time to water: %s\nReply /due for details or /water <id> once done.", strings.Join(names, ", "))
}
