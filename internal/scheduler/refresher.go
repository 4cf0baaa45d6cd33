package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/detector"
	"github.com/msfttoler/sports/internal/metrics"
	"github.com/msfttoler/sports/internal/predictor"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/contracts"
	"github.com/msfttoler/sports/pkg/models"
)

const noAPIKeyMessage = "No ODDS_API_KEY configured. Add it to your .env file."

// Config controls a Refresher
type Config struct {
	Sports        []string
	APIKeySet     bool
	MinProfitPct  float64
	MinEdge       float64
	MinConfidence float64
}

// Refresher runs one full odds refresh: fetch, persist, detect, publish
type Refresher struct {
	odds        contracts.OddsProvider
	stats       contracts.StatsProvider
	injuries    contracts.InjuryProvider
	store       store.Store
	publisher   contracts.OpportunityPublisher
	broadcaster contracts.Broadcaster
	metrics     *metrics.Metrics
	log         logrus.FieldLogger

	config    Config
	arbitrage *detector.ArbitrageDetector
	value     *detector.ValueDetector
	now       func() time.Time

	mu          sync.RWMutex
	lastResult  *models.RefreshResult
	predictions []models.Prediction
	valueBets   []models.ValueBet
}

// NewRefresher creates a refresher. stats, publisher, broadcaster and m
// may be nil to disable predictions, streams, live push and metrics.
// Injury reports are used when stats also implements
// contracts.InjuryProvider.
func NewRefresher(
	odds contracts.OddsProvider,
	stats contracts.StatsProvider,
	st store.Store,
	publisher contracts.OpportunityPublisher,
	broadcaster contracts.Broadcaster,
	m *metrics.Metrics,
	config Config,
	log logrus.FieldLogger,
) *Refresher {
	injuries, _ := stats.(contracts.InjuryProvider)
	return &Refresher{
		odds:        odds,
		stats:       stats,
		injuries:    injuries,
		store:       st,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     m,
		log:         log.WithField("component", "refresher"),
		config:      config,
		arbitrage:   detector.NewArbitrageDetector(config.MinProfitPct),
		value:       detector.NewValueDetector(config.MinEdge, config.MinConfidence),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Refresh fetches every configured sport and runs detection. Per-sport
// failures are recorded in the result and do not stop the run.
func (r *Refresher) Refresh(ctx context.Context) models.RefreshResult {
	start := r.now()
	result := models.RefreshResult{
		SportsChecked: append([]string{}, r.config.Sports...),
		Errors:        []string{},
		Timestamp:     start,
	}

	if !r.config.APIKeySet {
		result.Errors = append(result.Errors, noAPIKeyMessage)
		r.finish(&result, start, "skipped")
		return result
	}

	events, fetched, usage := r.fetchAll(ctx, &result)
	result.EventsFetched = len(events)

	if usage != nil {
		result.APIRequestsRemaining = usage.RequestsRemaining
		if usage.RecordedAt.IsZero() {
			usage.RecordedAt = start
		}
		if err := r.store.SaveAPIUsage(ctx, *usage); err != nil {
			r.fail(&result, "save api usage", err)
		}
		if r.metrics != nil && usage.RequestsRemaining != nil {
			r.metrics.APIRequestsRemain.Set(float64(*usage.RequestsRemaining))
		}
	}

	if err := r.store.SaveOdds(ctx, store.FlattenEvents(events, start)); err != nil {
		r.fail(&result, "save odds", err)
	}

	arbs := r.arbitrage.Detect(events)
	result.ArbitrageFound = len(arbs)

	// keep the previous live set when nothing could be fetched
	if fetched > 0 {
		if err := r.store.ReplaceLiveArbitrage(ctx, arbs); err != nil {
			r.fail(&result, "save arbitrage", err)
		}
		r.recordArbitrage(arbs)
		r.publishArbitrage(ctx, arbs, &result)
	}

	predictions := r.predict(ctx, events)
	valueBets := r.value.Detect(predictions, events)
	result.PredictionsMade = len(predictions)
	result.ValueBetsFound = len(valueBets)
	r.publishValueBets(ctx, valueBets, &result)

	r.mu.Lock()
	if fetched > 0 {
		r.predictions = predictions
		r.valueBets = valueBets
	}
	r.mu.Unlock()

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	r.finish(&result, start, status)
	return result
}

// LastResult returns the most recent refresh result, or nil
func (r *Refresher) LastResult() *models.RefreshResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastResult == nil {
		return nil
	}
	res := *r.lastResult
	return &res
}

// Predictions returns predictions from the last successful refresh
func (r *Refresher) Predictions() []models.Prediction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Prediction{}, r.predictions...)
}

// ValueBets returns value bets from the last successful refresh
func (r *Refresher) ValueBets() []models.ValueBet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.ValueBet{}, r.valueBets...)
}

// fetchAll collects events for every sport. fetched counts sports that
// answered; usage is the last quota reading seen.
func (r *Refresher) fetchAll(ctx context.Context, result *models.RefreshResult) ([]models.Event, int, *models.APIUsage) {
	var (
		all     []models.Event
		fetched int
		usage   *models.APIUsage
	)

	for _, sport := range r.config.Sports {
		if err := ctx.Err(); err != nil {
			r.fail(result, "refresh cancelled", err)
			break
		}

		events, u, err := r.odds.GetOdds(ctx, sport)
		if err != nil {
			r.fail(result, sport, err)
			if r.metrics != nil {
				r.metrics.RecordProviderError("odds_api")
			}
			continue
		}

		fetched++
		if u != nil {
			usage = u
		}
		all = append(all, events...)
		if r.metrics != nil {
			r.metrics.EventsFetched.WithLabelValues(sport).Set(float64(len(events)))
		}
		r.log.WithFields(logrus.Fields{"sport": sport, "events": len(events)}).Debug("fetched odds")
	}

	return all, fetched, usage
}

// predict scores events per sport using league standings
func (r *Refresher) predict(ctx context.Context, events []models.Event) []models.Prediction {
	if r.stats == nil || len(events) == 0 {
		return nil
	}

	var order []string
	bySport := make(map[string][]models.Event)
	for _, e := range events {
		if _, ok := bySport[e.SportKey]; !ok {
			order = append(order, e.SportKey)
		}
		bySport[e.SportKey] = append(bySport[e.SportKey], e)
	}

	var predictions []models.Prediction
	for _, sport := range order {
		records, err := r.stats.FetchStandings(ctx, sport)
		if err != nil {
			r.log.WithError(err).WithField("sport", sport).Warn("standings unavailable, skipping predictions")
			if r.metrics != nil {
				r.metrics.RecordProviderError("espn")
			}
			continue
		}

		stats := make(map[string]models.TeamRecord, len(records))
		for _, rec := range records {
			stats[rec.Team] = rec
		}
		predictions = append(predictions, predictor.PredictEventsWithInjuries(bySport[sport], stats, r.injuryReports(ctx, sport))...)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Confidence > predictions[j].Confidence
	})
	return predictions
}

// injuryReports returns nil when injuries are unavailable; predictions
// then run on standings alone
func (r *Refresher) injuryReports(ctx context.Context, sport string) []models.InjuryReport {
	if r.injuries == nil {
		return nil
	}

	reports, err := r.injuries.FetchInjuries(ctx, sport)
	if err != nil {
		r.log.WithError(err).WithField("sport", sport).Warn("injury reports unavailable")
		if r.metrics != nil {
			r.metrics.RecordProviderError("espn")
		}
		return nil
	}
	return reports
}

func (r *Refresher) publishArbitrage(ctx context.Context, arbs []models.ArbitrageOpportunity, result *models.RefreshResult) {
	if len(arbs) == 0 {
		return
	}

	if r.publisher != nil {
		if err := r.publisher.PublishArbitrage(ctx, arbs); err != nil {
			r.fail(result, "publish arbitrage", err)
		}
	}

	if r.broadcaster != nil {
		var order []string
		bySport := make(map[string][]models.ArbitrageOpportunity)
		for _, a := range arbs {
			if _, ok := bySport[a.SportKey]; !ok {
				order = append(order, a.SportKey)
			}
			bySport[a.SportKey] = append(bySport[a.SportKey], a)
		}
		for _, sport := range order {
			r.broadcaster.Broadcast(models.MessageTypeArbitrage, sport, bySport[sport])
		}
	}
}

func (r *Refresher) publishValueBets(ctx context.Context, bets []models.ValueBet, result *models.RefreshResult) {
	if len(bets) == 0 {
		return
	}
	if r.publisher != nil {
		if err := r.publisher.PublishValueBets(ctx, bets); err != nil {
			r.fail(result, "publish value bets", err)
		}
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(models.MessageTypeValueBets, "", bets)
	}
}

func (r *Refresher) recordArbitrage(arbs []models.ArbitrageOpportunity) {
	if r.metrics == nil {
		return
	}

	counts := make(map[string]int, len(r.config.Sports))
	for _, s := range r.config.Sports {
		counts[s] = 0
	}
	best := 0.0
	for _, a := range arbs {
		counts[a.SportKey]++
		if a.ProfitPct > best {
			best = a.ProfitPct
		}
	}
	for sport, n := range counts {
		r.metrics.ArbitrageFound.WithLabelValues(sport).Set(float64(n))
	}
	r.metrics.BestProfitPct.Set(best)
}

func (r *Refresher) fail(result *models.RefreshResult, what string, err error) {
	msg := fmt.Sprintf("%s: %v", what, err)
	result.Errors = append(result.Errors, msg)
	r.log.WithError(err).Warn(what)
}

func (r *Refresher) finish(result *models.RefreshResult, start time.Time, status string) {
	elapsed := r.now().Sub(start)
	result.DurationMs = elapsed.Milliseconds()

	r.mu.Lock()
	res := *result
	r.lastResult = &res
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordRefresh(status, elapsed)
		if status != "skipped" {
			r.metrics.ValueBetsFound.Set(float64(result.ValueBetsFound))
		}
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(models.MessageTypeRefreshComplete, "", res)
	}

	fields := logrus.Fields{
		"status":      status,
		"events":      result.EventsFetched,
		"arbitrage":   result.ArbitrageFound,
		"predictions": result.PredictionsMade,
		"value_bets":  result.ValueBetsFound,
		"errors":      len(result.Errors),
		"duration_ms": result.DurationMs,
	}
	if result.APIRequestsRemaining != nil {
		fields["api_remaining"] = *result.APIRequestsRemaining
	}
	r.log.WithFields(fields).Info("refresh complete")
}
