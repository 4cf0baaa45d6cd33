package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/msfttoler/sports/pkg/models"
)

// SlackNotifier sends alerts to Slack via webhook
type SlackNotifier struct {
	webhookURL string
	http       *resty.Client
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		http: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Send posts a plain text message
func (s *SlackNotifier) Send(ctx context.Context, text string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Slack alert: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// FormatArbitrage renders an arbitrage opportunity as a Slack message
func FormatArbitrage(opp models.ArbitrageOpportunity) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "💰 *ARBITRAGE* | Profit: %.2f%%\n\n", opp.ProfitPct)
	fmt.Fprintf(&sb, "*Event:* %s\n", opp.EventName)
	fmt.Fprintf(&sb, "*Market:* %s | *Sport:* %s\n", opp.Market, opp.SportKey)
	if !opp.CommenceTime.IsZero() {
		fmt.Fprintf(&sb, "*Starts:* %s\n", opp.CommenceTime.UTC().Format("Jan 2 15:04 MST"))
	}
	sb.WriteString("\n")

	for i, leg := range opp.Legs {
		fmt.Fprintf(&sb, "*Leg %d:* %s | %s @ %s | stake %.2f%%\n",
			i+1, leg.Bookmaker, leg.Outcome, formatOdds(leg.Price), leg.StakePct)
	}

	fmt.Fprintf(&sb, "\n_Detected: %s_", opp.DetectedAt.UTC().Format("15:04:05"))
	return sb.String()
}

// FormatValueBet renders a value bet as a Slack message
func FormatValueBet(bet models.ValueBet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🎯 *VALUE BET* | Edge: %.1f pts\n\n", bet.EdgePct*100)
	fmt.Fprintf(&sb, "*Event:* %s\n", bet.EventName)
	fmt.Fprintf(&sb, "*Pick:* %s @ %s (%s)\n", bet.Team, formatOdds(bet.BestPrice), bet.BestBookmaker)
	fmt.Fprintf(&sb, "*Model:* %.1f%% vs book %.1f%%", bet.OurProb*100, bet.BookImpliedProb*100)
	if bet.FairPrice != nil {
		fmt.Fprintf(&sb, " | fair %s", formatOdds(*bet.FairPrice))
	}
	fmt.Fprintf(&sb, "\n*Confidence:* %s | *Kelly:* %.1f%%", bet.ConfidenceLabel, bet.KellyFraction*100)
	return sb.String()
}

// formatOdds formats American odds with sign
func formatOdds(americanOdds int) string {
	if americanOdds > 0 {
		return fmt.Sprintf("+%d", americanOdds)
	}
	return fmt.Sprintf("%d", americanOdds)
}
