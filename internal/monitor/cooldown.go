package monitor

import (
	"time"

	"github.com/sdelkov4-collab/bot/internal/models"
)

// InCooldown reports whether the given signal kind fired for this item within
// the cooldown window. A never-fired kind is never in cooldown.
func InCooldown(state *models.ItemState, kind string, now time.Time, cooldown time.Duration) bool {
	last, ok := state.LastAlerts[kind]
	return ok && now.Sub(last) < cooldown
}

// MarkFired records that the given signal kind fired for this item at now.
func MarkFired(state *models.ItemState, kind string, now time.Time) {
	if state.LastAlerts == nil {
		state.LastAlerts = make(map[string]time.Time)
	}
	state.LastAlerts[kind] = now
}
