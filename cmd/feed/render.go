package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/pkg/util"
)

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// renderSignal writes one feed row followed by a detail line.
func renderSignal(w io.Writer, s *models.Signal, now time.Time) {
	kind := "signal"
	if s.SignalType != nil && s.SignalType.Valid() {
		kind = strings.ToUpper(string(*s.SignalType))
	}
	fmt.Fprintf(w, "%-8s %-6s %-10s mcap %-8s buy %-10s roi %-8s %s\n",
		util.FormatTimeAgo(s.Timestamp, now),
		kind,
		orDash(s.TokenSymbol),
		util.FormatUSD(s.MarketCap),
		util.FormatSOL(s.BuySize),
		util.FormatROI(s.CurrentROI),
		util.FormatPrice(s.PriceUSD),
	)

	var risk string
	if s.RiskLevel != nil && s.RiskLevel.Valid() {
		risk = string(*s.RiskLevel)
	}
	fmt.Fprintf(w, "         token %s wallet %s age %s risk %s\n",
		orDash(s.TokenAddress), orDash(s.WalletAddress), formatAge(s.Age), orDash(&risk))
}

// formatAge shows numeric ages (minutes) in the largest whole unit and free-form ages as given.
func formatAge(a *models.TokenAge) string {
	if a == nil || *a == "" {
		return "-"
	}
	m, ok := a.Minutes()
	if !ok {
		return string(*a)
	}
	switch {
	case m < 60:
		return fmt.Sprintf("%.0fm", m)
	case m < 24*60:
		return fmt.Sprintf("%.0fh", m/60)
	default:
		return fmt.Sprintf("%.0fd", m/(24*60))
	}
}

// renderFeed clears the terminal and writes at most limit signals.
func renderFeed(w io.Writer, signals []*models.Signal, limit int, now time.Time) {
	fmt.Fprint(w, "\033[H\033[2J")
	fmt.Fprintf(w, "SignalDesk feed  %s  (%d signals)\n\n", now.Format("15:04:05"), len(signals))
	if len(signals) == 0 {
		fmt.Fprintln(w, "No signals yet")
		return
	}
	if limit > 0 && len(signals) > limit {
		signals = signals[:limit]
	}
	for _, s := range signals {
		renderSignal(w, s, now)
	}
}
