// Package catalog expands the configured scope into the market hash names
// tracked by the monitor.
package catalog

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sdelkov4-collab/bot/internal/config"
)

// Item is one tracked sticker variant. Key is the stable identity under
// which state is stored; Name is the marketplace query label. The two are
// equal today, but state continuity depends on Key alone.
type Item struct {
	Name string
	Key  string
}

// Build expands teams and players across their variants into the full list
// of tracked items. Player names are normalized through the alias map
// (case-insensitive) before formatting.
func Build(scope config.ScopeConfig, aliases config.AliasConfig) []Item {
	lowerAliases := make(map[string]string, len(aliases.Players))
	for k, v := range aliases.Players {
		lowerAliases[strings.ToLower(k)] = v
	}
	normalize := func(p string) string {
		if alias, ok := lowerAliases[strings.ToLower(p)]; ok {
			return alias
		}
		return p
	}

	var items []Item
	add := func(name string) {
		if name != "" {
			items = append(items, Item{Name: name, Key: name})
		}
	}

	for _, team := range scope.Teams.Include {
		for _, variant := range scope.Teams.Variants {
			add(teamName(team, variant, scope.Event))
		}
	}
	for _, player := range scope.Players.Include {
		for _, variant := range scope.Players.Variants {
			add(playerName(normalize(player), variant, scope.Event))
		}
	}

	return items
}

// teamName formats a team sticker market hash name. Teams have no gold
// variant; unknown variants produce no item.
func teamName(base, variant, event string) string {
	switch variant {
	case "paper":
		return fmt.Sprintf("Sticker | %s | %s", base, event)
	case "holo":
		return fmt.Sprintf("Sticker | %s (Holo) | %s", base, event)
	case "foil":
		return fmt.Sprintf("Sticker | %s (Foil) | %s", base, event)
	}
	return ""
}

// playerName formats a player sticker market hash name. Players have no foil
// variant.
func playerName(base, variant, event string) string {
	switch variant {
	case "paper":
		return fmt.Sprintf("Sticker | %s | %s", base, event)
	case "holo":
		return fmt.Sprintf("Sticker | %s (Holo) | %s", base, event)
	case "gold":
		return fmt.Sprintf("Sticker | %s (Gold) | %s", base, event)
	}
	return ""
}

// Shuffle permutes items in place. Randomized iteration order spreads the
// per-item request pattern across runs.
func Shuffle(items []Item, rng *rand.Rand) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
