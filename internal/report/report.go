// Package report renders a monitoring run into the full text report and the
// short summary message delivered through Telegram.
package report

import (
	"fmt"
	"strings"

	"github.com/sdelkov4-collab/bot/internal/models"
	"github.com/sdelkov4-collab/bot/internal/monitor"
)

// Report is the rendered output of one run.
type Report struct {
	// Full is the complete plain-text report, delivered as a document.
	Full string
	// Summary is the short HTML message sent alongside it.
	Summary string
	// Counts is the number of fired signals per kind.
	Counts map[string]int
}

// Assembler renders run results. Title prefixes the report header.
type Assembler struct {
	Title string
}

// byKind partitions signals into the report's categories.
type byKind struct {
	discounts []models.PriceDiscount
	spikes    []models.VolumeSpike
	combos    []models.Combo
	pumps     []models.Pump
	changes   []models.ChangeAlert
}

func partition(signals []models.Signal) byKind {
	var p byKind
	for _, s := range signals {
		switch sig := s.(type) {
		case models.PriceDiscount:
			p.discounts = append(p.discounts, sig)
		case models.VolumeSpike:
			p.spikes = append(p.spikes, sig)
		case models.Combo:
			p.combos = append(p.combos, sig)
		case models.Pump:
			p.pumps = append(p.pumps, sig)
		case models.ChangeAlert:
			p.changes = append(p.changes, sig)
		}
	}
	return p
}

// Assemble renders the run result. Every signal category appears in the
// report even when empty, so "checked, found nothing" never looks like
// "no data".
func (a *Assembler) Assemble(result *monitor.RunResult) Report {
	p := partition(result.Signals())

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s\n", a.Title, result.StartedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "items: %d | checked: %d | skipped (low sales): %d\n\n", result.ItemCount, result.Checked, result.Skipped)

	for _, item := range result.Items {
		b.WriteString(itemLine(item))
		b.WriteString("\n\n")
	}

	writeSection(&b, "PRICE SIGNALS (vs long-window median)", len(p.discounts), func() {
		for _, s := range p.discounts {
			fmt.Fprintf(&b, "  [%s] %s — %s\n", strings.ToUpper(string(s.Severity)), s.ItemName, s.Describe())
		}
	})
	writeSection(&b, "VOLUME SPIKES", len(p.spikes), func() {
		for _, s := range p.spikes {
			fmt.Fprintf(&b, "  %s — %s\n", s.ItemName, s.Describe())
		}
	})
	writeSection(&b, "COMBO (price + volume)", len(p.combos), func() {
		for _, s := range p.combos {
			fmt.Fprintf(&b, "  %s — %s\n", s.ItemName, s.Describe())
		}
	})
	writeSection(&b, "PUMP (short window)", len(p.pumps), func() {
		for _, s := range p.pumps {
			fmt.Fprintf(&b, "  %s — %s\n", s.ItemName, s.Describe())
		}
	})
	writeSection(&b, "CHANGE ALERTS", len(p.changes), func() {
		for _, s := range p.changes {
			fmt.Fprintf(&b, "  %s — %s\n", s.ItemName, s.Describe())
		}
	})

	if buys := buyCandidates(p.discounts); len(buys) > 0 {
		b.WriteString("BUY CANDIDATES (deep discounts):\n")
		for _, name := range buys {
			fmt.Fprintf(&b, "  %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(result.Notes) > 0 {
		b.WriteString("NOTES:\n")
		for _, n := range result.Notes {
			fmt.Fprintf(&b, "  [WARN] %s\n", n)
		}
	}

	counts := map[string]int{
		models.KindPriceDiscount: len(p.discounts),
		models.KindVolumeSpike:   len(p.spikes),
		models.KindCombo:         len(p.combos),
		models.KindPump:          len(p.pumps),
		models.KindChange:        len(p.changes),
	}

	return Report{
		Full:    b.String(),
		Summary: a.summary(result, p, counts),
		Counts:  counts,
	}
}

func writeSection(b *strings.Builder, title string, n int, body func()) {
	fmt.Fprintf(b, "%s:\n", title)
	if n == 0 {
		b.WriteString("  none\n")
	} else {
		body()
	}
	b.WriteString("\n")
}

// itemLine renders one item's observation row, mirroring what was measured
// and which baselines applied.
func itemLine(item monitor.ItemResult) string {
	var b strings.Builder
	b.WriteString(item.Name)
	b.WriteString("\n  median: ")
	b.WriteString(fmtPrice(item.Median))
	b.WriteString(" | lowest ask: ")
	b.WriteString(fmtPrice(item.Ask))
	fmt.Fprintf(&b, " | sales 24h: %d", item.Sales24h)
	if item.Base.Median != nil {
		fmt.Fprintf(&b, " | %s median≈ %.2f", item.Base.Window, *item.Base.Median)
	}
	if item.Base.Sales != nil {
		fmt.Fprintf(&b, " | %s avg sales≈ %.1f", item.Base.Window, *item.Base.Sales)
	}
	if item.ShortMedian != nil {
		fmt.Fprintf(&b, " | short≈ %.2f/%dm", *item.ShortMedian, int(item.ShortWindow.Minutes()))
	}
	if item.SoldSince != nil {
		fmt.Fprintf(&b, " | sold since last run: %d (est.)", *item.SoldSince)
	}
	return b.String()
}

func fmtPrice(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

// buyCandidates lists items with a deep discount, deduplicated in order.
func buyCandidates(discounts []models.PriceDiscount) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range discounts {
		if d.Severity != models.SeverityDeep || seen[d.ItemName] {
			continue
		}
		seen[d.ItemName] = true
		out = append(out, d.ItemName)
	}
	return out
}

// summary builds the short HTML message: per-kind counts plus the strongest
// entries, with explicit zeroes.
func (a *Assembler) summary(result *monitor.RunResult, p byKind, counts map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> — %s\n", a.Title, result.StartedAt.Format("15:04 UTC"))
	fmt.Fprintf(&b, "checked %d/%d items\n\n", result.Checked, result.ItemCount)

	fmt.Fprintf(&b, "discounts: %d | spikes: %d | combo: %d | pump: %d",
		counts[models.KindPriceDiscount], counts[models.KindVolumeSpike],
		counts[models.KindCombo], counts[models.KindPump])
	if counts[models.KindChange] > 0 {
		fmt.Fprintf(&b, " | change: %d", counts[models.KindChange])
	}
	b.WriteString("\n")

	for _, s := range p.combos {
		fmt.Fprintf(&b, "\n🔥 %s: %s", s.ItemName, s.Describe())
	}
	for _, s := range p.pumps {
		fmt.Fprintf(&b, "\n🚀 %s: %s", s.ItemName, s.Describe())
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		b.WriteString("no signals this run")
	}
	if len(result.Notes) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d warning(s), see report", len(result.Notes))
	}
	return b.String()
}
