package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dexten32/accuscanner/app/config"
	"github.com/dexten32/accuscanner/app/models"

	"github.com/lib/pq"
)

var db *sql.DB

// ErrDuplicateEmail is returned by createUser when the email is taken.
var ErrDuplicateEmail = errors.New("user already exists")

// MustInitDB initializes the global db and panics/logs fatally on error.
func MustInitDB() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
		cfg.DB.Database,
		cfg.DB.SSLMode,
	)

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}

	if err := d.Ping(); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	log.Println("Connected to Postgres")
	db = d
}

// --- scan runs ---

func getScanRun(ctx context.Context, date string) (models.ScanRun, error) {
	var (
		run     models.ScanRun
		runDate time.Time
	)
	err := db.QueryRowContext(ctx, `
		SELECT run_date, status, error_message, started_at, completed_at
		FROM scanner_runs
		WHERE run_date = $1;
	`, date).Scan(&runDate, &run.Status, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return models.ScanRun{}, err
	}
	run.RunDate = runDate.Format("2006-01-02")
	return run, nil
}

// markRunRunning upserts the run record for a date into the running state,
// clearing any prior error. The unique key on run_date makes concurrent
// triggers collapse onto one record (last write wins on status).
func markRunRunning(ctx context.Context, date string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO scanner_runs (run_date, status, started_at)
		VALUES ($1, 'running', now())
		ON CONFLICT (run_date) DO UPDATE SET
			status = 'running',
			error_message = NULL,
			started_at = now(),
			completed_at = NULL;
	`, date)
	return err
}

func markRunCompleted(ctx context.Context, date string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE scanner_runs
		SET status = 'completed', error_message = NULL, completed_at = now()
		WHERE run_date = $1;
	`, date)
	return err
}

func markRunFailed(ctx context.Context, date, message string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE scanner_runs
		SET status = 'failed', error_message = $2, completed_at = now()
		WHERE run_date = $1;
	`, date, message)
	return err
}

// --- available dates ---

// distinctTradeDates fetches every distinct date present in the raw data,
// newest first. Deliberately unlimited: the date cache holds the full list
// and plan windows are sliced per caller.
func distinctTradeDates(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT trade_date
		FROM raw_market_data
		ORDER BY trade_date DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d.Format("2006-01-02"))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- scan results ---

// buildResultsQuery assembles the filtered results query. All ranges are
// inclusive on both ends; IsFnO is only constrained when set.
func buildResultsQuery(date string, f models.ResultFilter) (string, []any) {
	q := `
		SELECT trade_date, symbol, close, price_change_pct, volume, avg_volume,
		       volume_multiplier, delivery_percent, score, signal_tag, is_fno
		FROM scanner_results
		WHERE trade_date = $1
		  AND delivery_percent BETWEEN $2 AND $3
		  AND volume_multiplier BETWEEN $4 AND $5
		  AND price_change_pct BETWEEN $6 AND $7`
	args := []any{date, f.MinDelivery, f.MaxDelivery, f.MinVolMult, f.MaxVolMult, f.MinPrice, f.MaxPrice}

	if f.IsFnO != nil {
		q += fmt.Sprintf("\n\t\t  AND is_fno = $%d", len(args)+1)
		args = append(args, *f.IsFnO)
	}

	q += "\n\t\tORDER BY score DESC;"
	return q, args
}

func queryScanResults(ctx context.Context, date string, f models.ResultFilter) ([]models.ScanResult, error) {
	q, args := buildResultsQuery(date, f)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScanResult{}
	for rows.Next() {
		var (
			r models.ScanResult
			d time.Time
		)
		if err := rows.Scan(
			&d,
			&r.Symbol,
			&r.Close,
			&r.PriceChangePct,
			&r.Volume,
			&r.AvgVolume,
			&r.VolumeMultiplier,
			&r.DeliveryPercent,
			&r.Score,
			&r.SignalTag,
			&r.IsFnO,
		); err != nil {
			return nil, err
		}
		r.TradeDate = d.Format("2006-01-02")
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- users and subscriptions ---

// createUser inserts a user plus a FREE/ACTIVE subscription in one
// transaction. Registration always starts on the free tier; the payment flow
// upgrades it later.
func createUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	if db == nil {
		return models.User{}, errors.New("db not initialized")
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var user models.User
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, created_at;
	`, email, passwordHash).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan, status, starts_at, ends_at)
		VALUES ($1, $2, $3, now(), NULL);
	`, user.ID, models.PlanFree, models.SubscriptionActive)
	if err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	user.Plan = models.PlanFree
	user.Status = models.SubscriptionActive
	return user, nil
}

func getUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	if db == nil {
		return models.User{}, "", errors.New("db not initialized")
	}

	var (
		user   models.User
		hash   string
		plan   sql.NullString
		status sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.created_at, s.plan, s.status
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		WHERE u.email = $1;
	`, email).Scan(&user.ID, &user.Email, &hash, &user.CreatedAt, &plan, &status)
	if err != nil {
		return models.User{}, "", err
	}
	user.Plan, user.Status = subscriptionOrDefault(plan, status)
	return user, hash, nil
}

func getUserByID(ctx context.Context, userID string) (models.User, error) {
	var (
		user   models.User
		plan   sql.NullString
		status sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.created_at, s.plan, s.status
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		WHERE u.id = $1;
	`, userID).Scan(&user.ID, &user.Email, &user.CreatedAt, &plan, &status)
	if err != nil {
		return models.User{}, err
	}
	user.Plan, user.Status = subscriptionOrDefault(plan, status)
	return user, nil
}

func subscriptionOrDefault(plan, status sql.NullString) (models.Plan, models.SubscriptionStatus) {
	p := models.PlanFree
	s := models.SubscriptionInactive
	if plan.Valid && plan.String != "" {
		p = models.Plan(plan.String)
	}
	if status.Valid && status.String != "" {
		s = models.SubscriptionStatus(status.String)
	}
	return p, s
}

// upsertSubscription sets the user's plan after a verified payment.
func upsertSubscription(ctx context.Context, userID string, plan models.Plan, endsAt time.Time) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan, status, starts_at, ends_at)
		VALUES ($1, $2, $3, now(), $4)
		ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			starts_at = now(),
			ends_at = EXCLUDED.ends_at;
	`, userID, plan, models.SubscriptionActive, endsAt)
	return err
}

// --- payments ---

func createPayment(ctx context.Context, userID, orderID string, amount int64, currency string) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments (user_id, order_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5);
	`, userID, orderID, amount, currency, models.PaymentPending)
	return err
}

func markPaymentSuccess(ctx context.Context, orderID, paymentID string) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	res, err := db.ExecContext(ctx, `
		UPDATE payments
		SET payment_id = $2, status = $3
		WHERE order_id = $1;
	`, orderID, paymentID, models.PaymentSuccess)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		log.Printf("markPaymentSuccess: no payment row found for order=%s", orderID)
	}
	return nil
}
