package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"levelbot/internal/domain"
	"levelbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements ports.TradeJournal using SQLite. It is an append-only
// record for post-run review; the trading path never reads it back, so the
// gateway remains the authority on open positions.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal creates a new SQLite journal instance.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/levelbot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite works best with a single connection from Go.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}
	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize journal schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade journal ready", map[string]interface{}{"path": dbPath})
	return j, nil
}

func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		volume REAL NOT NULL,
		open_price REAL NOT NULL,
		close_price REAL DEFAULT 0,
		profit REAL DEFAULT 0,
		reason TEXT DEFAULT '',
		open_time TIMESTAMP NOT NULL,
		close_time TIMESTAMP DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_ticket ON trades (ticket);
	CREATE INDEX IF NOT EXISTS idx_trades_open_time ON trades (open_time);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordOpen appends a record for a newly opened position.
func (j *Journal) RecordOpen(ctx context.Context, rec *domain.TradeRecord) (int64, error) {
	const query = `
	INSERT INTO trades (ticket, symbol, direction, volume, open_price, open_time)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := j.db.ExecContext(ctx, query,
		rec.Ticket, rec.Symbol, string(rec.Direction), rec.Volume, rec.OpenPrice, rec.OpenTime)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted trade ID: %w", err)
	}
	return id, nil
}

// RecordClose fills in the close fields for the most recent open record of
// the ticket.
func (j *Journal) RecordClose(ctx context.Context, ticket int64, closePrice, profit float64, reason domain.CloseReason) error {
	const query = `
	UPDATE trades
	SET close_price = ?, profit = ?, reason = ?, close_time = ?
	WHERE id = (SELECT id FROM trades WHERE ticket = ? AND close_time IS NULL ORDER BY open_time DESC LIMIT 1)`
	res, err := j.db.ExecContext(ctx, query, closePrice, profit, string(reason), time.Now().UTC(), ticket)
	if err != nil {
		return fmt.Errorf("failed to update trade record for ticket %d: %w", ticket, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for ticket %d: %w", ticket, err)
	}
	if affected == 0 {
		// The open may have happened before the journal existed, or the
		// position was opened by a prior run. Not fatal; log and move on.
		j.logger.Warn(ctx, "No open journal record for closed ticket", map[string]interface{}{"ticket": ticket})
	}
	return nil
}

// RecentTrades returns the most recent records, newest first.
func (j *Journal) RecentTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT id, ticket, symbol, direction, volume, open_price, close_price, profit, reason, open_time, close_time
	FROM trades ORDER BY open_time DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (*domain.TradeRecord, error) {
	var (
		rec       domain.TradeRecord
		direction string
		reason    string
		closeTime sql.NullTime
	)
	err := rows.Scan(&rec.ID, &rec.Ticket, &rec.Symbol, &direction, &rec.Volume,
		&rec.OpenPrice, &rec.ClosePrice, &rec.Profit, &reason, &rec.OpenTime, &closeTime)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade row: %w", err)
	}
	rec.Direction = domain.Direction(direction)
	rec.Reason = domain.CloseReason(reason)
	if closeTime.Valid {
		rec.CloseTime = closeTime.Time
	}
	return &rec, nil
}
