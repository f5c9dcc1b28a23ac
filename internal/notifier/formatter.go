package notifier

import (
	"fmt"
	"strings"
	"time"

	"EngulfSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// Status is the runtime summary shown by /status.
type Status struct {
	Symbol      string
	Primary     model.Timeframe
	Confluence  model.Timeframe // empty when the gate is off
	Session     string
	SessionOpen bool
	Executor    string
	LastScan    time.Time
	LastErr     string
	Combos      int
	Entries     int
	Balance     float64
}

// FormatEntry formats an entry alert.
func FormatEntry(sig model.EntrySignal, order model.Order, execErr error) string {
	var b strings.Builder
	icon := "🟢"
	if sig.Side == model.Sell {
		icon = "🔴"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> @ %.5f\n\n", icon, sig.Side, order.Symbol, sig.Price))
	b.WriteString(fmt.Sprintf("Trigger: %s (level %.5f)\n", sig.Combo.Trigger.Time.UTC().Format(timeLayout), sig.Combo.TriggerLevel()))
	b.WriteString(fmt.Sprintf("Partner: %s\n", sig.Combo.Partner.Time.UTC().Format(timeLayout)))
	b.WriteString(fmt.Sprintf("Volume: %g | SL %.1f pips | TP %.1f pips\n", order.Volume, order.StopLossPips, order.TakeProfitPips))
	b.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", order.ID))
	if execErr != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ execution failed: %s\n", execErr))
	}
	return b.String()
}

// FormatCombos lists the live combos for both directions, newest first.
func FormatCombos(symbol string, cs *model.ComboSet) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s combos</b>", symbol))
	if cs != nil && !cs.BuiltAt.IsZero() {
		b.WriteString(fmt.Sprintf(" | %s", cs.BuiltAt.UTC().Format(timeLayout)))
	}
	b.WriteString("\n")
	if cs.Len() == 0 {
		b.WriteString("\nNo active combos.\n")
		return b.String()
	}
	for _, dir := range []model.Direction{model.Bullish, model.Bearish} {
		combos := cs.Combos(dir)
		if len(combos) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%s)\n", strings.ToUpper(dir.String()), dir.TradeSide()))
		for i, c := range combos {
			marker := "  "
			if i == 0 {
				marker = "▶ "
			}
			b.WriteString(fmt.Sprintf("%s%s level %.5f (vs %s)\n",
				marker,
				c.Trigger.Time.UTC().Format(timeLayout),
				c.TriggerLevel(),
				c.Partner.Time.UTC().Format(timeLayout)))
		}
	}
	return b.String()
}

// FormatLedger lists trigger bars that already produced an entry.
func FormatLedger(bars []model.OHLCV) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📒 <b>Triggered bars</b> (%d)\n", len(bars)))
	if len(bars) == 0 {
		b.WriteString("\nNone yet.\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, bar := range bars {
		b.WriteString(fmt.Sprintf("%s H %.5f L %.5f\n", bar.Time.UTC().Format(timeLayout), bar.High, bar.Low))
	}
	return b.String()
}

// FormatStatus formats the /status reply.
func FormatStatus(s Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🤖 <b>EngulfSentinel</b> | %s\n\n", s.Symbol))
	b.WriteString(fmt.Sprintf("Timeframe: %s", s.Primary))
	if s.Confluence != "" {
		b.WriteString(fmt.Sprintf(" (confluence %s)", s.Confluence))
	}
	b.WriteString("\n")
	open := "closed"
	if s.SessionOpen {
		open = "open"
	}
	b.WriteString(fmt.Sprintf("Session: %s (%s)\n", s.Session, open))
	b.WriteString(fmt.Sprintf("Executor: %s\n", s.Executor))
	if s.LastScan.IsZero() {
		b.WriteString("Last scan: never\n")
	} else {
		b.WriteString(fmt.Sprintf("Last scan: %s\n", s.LastScan.UTC().Format(timeLayout)))
	}
	if s.LastErr != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", s.LastErr))
	}
	b.WriteString(fmt.Sprintf("Active combos: %d\n", s.Combos))
	b.WriteString(fmt.Sprintf("Entries: %d\n", s.Entries))
	if s.Balance > 0 {
		b.WriteString(fmt.Sprintf("Balance: %.2f\n", s.Balance))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "🤖 <b>EngulfSentinel commands</b>\n\n" +
		"/combos - active combos\n" +
		"/ledger - bars that already triggered\n" +
		"/status - runtime status\n" +
		"/scan - rescan now\n" +
		"/help - this message\n"
}
