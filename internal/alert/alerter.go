// Package alert sends Slack notifications for new arbitrage and value bets.
package alert

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/msfttoler/sports/internal/metrics"
	"github.com/msfttoler/sports/pkg/models"
)

// Alert kinds
const (
	KindArbitrage = "arbitrage"
	KindValueBet  = "value_bet"
)

// Sender delivers a rendered alert
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Config controls alert thresholds and pacing
type Config struct {
	MinProfitPct  float64
	MinEdge       float64
	DedupTTL      time.Duration
	RatePerMinute int
}

// Alerter filters, deduplicates and rate limits opportunities before
// handing them to a Sender. It satisfies contracts.OpportunityPublisher.
type Alerter struct {
	sender  Sender
	filter  *Filter
	dedup   *Deduplicator
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewAlerter creates an alerter. sender may be nil, in which case alerts
// are only logged. m may be nil.
func NewAlerter(sender Sender, cfg Config, m *metrics.Metrics, log logrus.FieldLogger) *Alerter {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Alerter{
		sender:  sender,
		filter:  NewFilter(cfg.MinProfitPct, cfg.MinEdge),
		dedup:   NewDeduplicator(cfg.DedupTTL),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		metrics: m,
		log:     log.WithField("component", "alerter"),
	}
}

// PublishArbitrage alerts on opportunities not alerted within the TTL
func (a *Alerter) PublishArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	for _, opp := range opps {
		if ok, reason := a.filter.ShouldAlertArbitrage(opp); !ok {
			a.log.WithFields(logrus.Fields{"event_id": opp.EventID, "reason": reason}).Debug("arbitrage alert filtered")
			a.record(KindArbitrage, "filtered")
			continue
		}
		a.deliver(ctx, KindArbitrage, ArbitrageKey(opp), FormatArbitrage(opp), logrus.Fields{
			"event_id":   opp.EventID,
			"profit_pct": opp.ProfitPct,
		})
	}
	return nil
}

// PublishValueBets alerts on value bets not alerted within the TTL
func (a *Alerter) PublishValueBets(ctx context.Context, bets []models.ValueBet) error {
	for _, bet := range bets {
		if ok, _ := a.filter.ShouldAlertValueBet(bet); !ok {
			a.record(KindValueBet, "filtered")
			continue
		}
		a.deliver(ctx, KindValueBet, ValueBetKey(bet), FormatValueBet(bet), logrus.Fields{
			"event_id": bet.EventID,
			"team":     bet.Team,
			"edge":     bet.EdgePct,
		})
	}
	return nil
}

// deliver never returns an error. A failed webhook must not fail the
// refresh that produced the opportunity.
func (a *Alerter) deliver(ctx context.Context, kind, key, text string, fields logrus.Fields) {
	entry := a.log.WithFields(fields).WithField("kind", kind)

	if !a.dedup.ShouldAlert(key) {
		a.record(kind, "duplicate")
		return
	}
	if !a.limiter.Allow() {
		a.dedup.Forget(key)
		entry.Warn("alert rate limited")
		a.record(kind, "rate_limited")
		return
	}

	if a.sender == nil {
		entry.Info("alert (no webhook configured)")
		a.record(kind, "logged")
		return
	}

	if err := a.sender.Send(ctx, text); err != nil {
		a.dedup.Forget(key)
		entry.WithError(err).Warn("alert delivery failed")
		a.record(kind, "failed")
		return
	}
	entry.Info("alert sent")
	a.record(kind, "sent")
}

func (a *Alerter) record(kind, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordAlert(kind, outcome)
	}
}
