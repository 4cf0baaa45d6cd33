package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/msfttoler/sports/pkg/models"
)

//go:embed schema.sql
var schema string

// Postgres implements Store for PostgreSQL
type Postgres struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection pool
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates tables and indexes if missing
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping checks database connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// SaveOdds inserts snapshot rows in one transaction
func (p *Postgres) SaveOdds(ctx context.Context, rows []models.OddsRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO odds_snapshots (
			sport_key, event_id, event_name, home_team, away_team, commence_time,
			bookmaker, market, outcome_name, price, point, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id, bookmaker, market, outcome_name, fetched_at)
		DO UPDATE SET price = EXCLUDED.price, point = EXCLUDED.point
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare odds insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.SportKey, r.EventID, r.EventName, r.HomeTeam, r.AwayTeam, r.CommenceTime,
			r.Bookmaker, r.Market, r.OutcomeName, r.Price, r.Point, r.FetchedAt,
		); err != nil {
			return fmt.Errorf("failed to insert odds row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestOdds returns the most recent snapshot, optionally for one sport
func (p *Postgres) LatestOdds(ctx context.Context, sportKey string) ([]models.OddsRow, error) {
	query := `
		SELECT id, sport_key, event_id, event_name, home_team, away_team, commence_time,
		       bookmaker, market, outcome_name, price, point, fetched_at
		FROM odds_snapshots
		WHERE fetched_at = (SELECT MAX(fetched_at) FROM odds_snapshots WHERE ($1 = '' OR sport_key = $1))
		  AND ($1 = '' OR sport_key = $1)
		ORDER BY commence_time, event_name, bookmaker
	`

	rows, err := p.db.QueryContext(ctx, query, sportKey)
	if err != nil {
		return nil, fmt.Errorf("query latest odds: %w", err)
	}
	defer rows.Close()

	var out []models.OddsRow
	for rows.Next() {
		var r models.OddsRow
		var point sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &r.SportKey, &r.EventID, &r.EventName, &r.HomeTeam, &r.AwayTeam, &r.CommenceTime,
			&r.Bookmaker, &r.Market, &r.OutcomeName, &r.Price, &point, &r.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan odds row: %w", err)
		}
		if point.Valid {
			r.Point = &point.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceLiveArbitrage swaps the live set inside one transaction
func (p *Postgres) ReplaceLiveArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE arbitrage_opportunities SET still_live = FALSE WHERE still_live`); err != nil {
		return fmt.Errorf("failed to expire live arbitrage: %w", err)
	}

	if len(opps) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO arbitrage_opportunities (
				sport_key, event_id, event_name, home_team, away_team, commence_time,
				market, profit_pct, total_implied_prob, legs, detected_at, still_live
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare arbitrage insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range opps {
			legs, err := json.Marshal(o.Legs)
			if err != nil {
				return fmt.Errorf("failed to encode legs: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				o.SportKey, o.EventID, o.EventName, o.HomeTeam, o.AwayTeam, o.CommenceTime,
				o.Market, o.ProfitPct, o.TotalImpliedProb, legs, o.DetectedAt,
			); err != nil {
				return fmt.Errorf("failed to insert arbitrage: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const arbitrageColumns = `
	id, sport_key, event_id, event_name, home_team, away_team, commence_time,
	market, profit_pct, total_implied_prob, legs, detected_at, still_live
`

// LiveArbitrage returns the current live set, most profitable first
func (p *Postgres) LiveArbitrage(ctx context.Context) ([]models.ArbitrageOpportunity, error) {
	return p.queryArbitrage(ctx, `SELECT `+arbitrageColumns+`
		FROM arbitrage_opportunities
		WHERE still_live
		ORDER BY profit_pct DESC`)
}

// ArbitrageHistory returns recent opportunities, newest first
func (p *Postgres) ArbitrageHistory(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error) {
	return p.queryArbitrage(ctx, `SELECT `+arbitrageColumns+`
		FROM arbitrage_opportunities
		ORDER BY detected_at DESC, id DESC
		LIMIT $1`, ClampLimit(limit))
}

func (p *Postgres) queryArbitrage(ctx context.Context, query string, args ...interface{}) ([]models.ArbitrageOpportunity, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query arbitrage: %w", err)
	}
	defer rows.Close()

	var out []models.ArbitrageOpportunity
	for rows.Next() {
		var o models.ArbitrageOpportunity
		var legs []byte
		if err := rows.Scan(
			&o.ID, &o.SportKey, &o.EventID, &o.EventName, &o.HomeTeam, &o.AwayTeam, &o.CommenceTime,
			&o.Market, &o.ProfitPct, &o.TotalImpliedProb, &legs, &o.DetectedAt, &o.StillLive,
		); err != nil {
			return nil, fmt.Errorf("scan arbitrage: %w", err)
		}
		if err := json.Unmarshal(legs, &o.Legs); err != nil {
			return nil, fmt.Errorf("decode legs for arbitrage %d: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SaveAPIUsage records a quota reading
func (p *Postgres) SaveAPIUsage(ctx context.Context, usage models.APIUsage) error {
	recordedAt := usage.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO api_usage (requests_used, requests_remaining, recorded_at)
		VALUES ($1, $2, $3)
	`, usage.RequestsUsed, usage.RequestsRemaining, recordedAt)
	if err != nil {
		return fmt.Errorf("insert api usage: %w", err)
	}
	return nil
}

// LatestAPIUsage returns the newest quota reading, or nil
func (p *Postgres) LatestAPIUsage(ctx context.Context) (*models.APIUsage, error) {
	var used, remaining sql.NullInt64
	var u models.APIUsage
	err := p.db.QueryRowContext(ctx, `
		SELECT requests_used, requests_remaining, recorded_at
		FROM api_usage ORDER BY recorded_at DESC, id DESC LIMIT 1
	`).Scan(&used, &remaining, &u.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query api usage: %w", err)
	}
	u.RequestsUsed = nullInt(used)
	u.RequestsRemaining = nullInt(remaining)
	return &u, nil
}

// CreateBet inserts a pending bet and fills in its ID and placement time
func (p *Postgres) CreateBet(ctx context.Context, bet *models.Bet) (int64, error) {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bet_tracker (
			sport, event_name, home_team, away_team, bet_type, pick,
			spread_line, total_line, odds, stake, potential_win,
			our_confidence, result, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending', $13)
		RETURNING id, placed_at
	`,
		bet.Sport, bet.EventName, nullString(bet.HomeTeam), nullString(bet.AwayTeam), bet.BetType, bet.Pick,
		bet.SpreadLine, bet.TotalLine, bet.Odds, bet.Stake, bet.PotentialWin,
		bet.OurConfidence, nullString(bet.Notes),
	).Scan(&bet.ID, &bet.PlacedAt)
	if err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}
	bet.Result = models.ResultPending
	return bet.ID, nil
}

const betColumns = `
	id, sport, event_name, home_team, away_team, bet_type, pick,
	spread_line, total_line, odds, stake, potential_win, our_confidence,
	result, actual_pnl, home_score, away_score, notes, placed_at, settled_at
`

// GetBet returns one bet or ErrNotFound
func (p *Postgres) GetBet(ctx context.Context, id int64) (*models.Bet, error) {
	rows, err := p.queryBets(ctx, `SELECT `+betColumns+` FROM bet_tracker WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// GetBets returns recent bets, newest first
func (p *Postgres) GetBets(ctx context.Context, limit int) ([]*models.Bet, error) {
	return p.queryBets(ctx, `SELECT `+betColumns+` FROM bet_tracker ORDER BY placed_at DESC, id DESC LIMIT $1`, ClampLimit(limit))
}

// PendingBets returns unsettled bets, oldest first
func (p *Postgres) PendingBets(ctx context.Context) ([]*models.Bet, error) {
	return p.queryBets(ctx, `SELECT `+betColumns+` FROM bet_tracker WHERE result = 'pending' ORDER BY placed_at ASC, id ASC`)
}

// UpdateBetResult settles a bet
func (p *Postgres) UpdateBetResult(ctx context.Context, id int64, result string, pnl float64, homeScore, awayScore *int) (*models.Bet, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bet_tracker
		SET result = $2, actual_pnl = $3,
		    home_score = COALESCE($4, home_score), away_score = COALESCE($5, away_score),
		    settled_at = now()
		WHERE id = $1
	`, id, result, pnl, homeScore, awayScore)
	if err != nil {
		return nil, fmt.Errorf("update bet %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return p.GetBet(ctx, id)
}

// BetSummary aggregates all tracked bets
func (p *Postgres) BetSummary(ctx context.Context) (*models.BetSummary, error) {
	var total, wins, losses, pushes int
	var staked, pnl float64
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE result = 'win'),
		       COUNT(*) FILTER (WHERE result = 'loss'),
		       COUNT(*) FILTER (WHERE result = 'push'),
		       COALESCE(SUM(stake) FILTER (WHERE result <> 'pending'), 0),
		       COALESCE(SUM(actual_pnl) FILTER (WHERE result <> 'pending'), 0)
		FROM bet_tracker
	`).Scan(&total, &wins, &losses, &pushes, &staked, &pnl)
	if err != nil {
		return nil, fmt.Errorf("query bet summary: %w", err)
	}
	return newSummary(total, wins, losses, pushes, staked, pnl), nil
}

func (p *Postgres) queryBets(ctx context.Context, query string, args ...interface{}) ([]*models.Bet, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var out []*models.Bet
	for rows.Next() {
		var (
			b                    models.Bet
			home, away, notes    sql.NullString
			spread, total, conf  sql.NullFloat64
			homeScore, awayScore sql.NullInt64
			settledAt            pq.NullTime
		)
		if err := rows.Scan(
			&b.ID, &b.Sport, &b.EventName, &home, &away, &b.BetType, &b.Pick,
			&spread, &total, &b.Odds, &b.Stake, &b.PotentialWin, &conf,
			&b.Result, &b.ActualPnL, &homeScore, &awayScore, &notes, &b.PlacedAt, &settledAt,
		); err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		b.HomeTeam, b.AwayTeam, b.Notes = home.String, away.String, notes.String
		b.SpreadLine = nullFloat(spread)
		b.TotalLine = nullFloat(total)
		b.OurConfidence = nullFloat(conf)
		b.HomeScore = nullInt(homeScore)
		b.AwayScore = nullInt(awayScore)
		if settledAt.Valid {
			b.SettledAt = &settledAt.Time
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
