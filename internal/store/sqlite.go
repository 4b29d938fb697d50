package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/roadassist/client/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceRequests swaps the cached copy of one request list for a fresh
// snapshot, in a single transaction.
func (s *SQLiteStore) ReplaceRequests(
	ctx context.Context,
	list string,
	requests []model.RepairRequest,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM requests WHERE list = ?", list); err != nil {
		return fmt.Errorf("clearing cached list %s: %w", list, err)
	}

	const query = `
		INSERT OR REPLACE INTO requests (
			list, id, client_id, client_name, client_phone, client_address,
			mechanic_shop_id, mechanic_user_id, shop_name, shop_address, shop_phone,
			latitude, longitude, vehicle_type, problem_description, ai_suggestion,
			type, status, rating, review,
			created_at, accepted_at, completed_at, fetched_at
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing request upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range requests {
		_, err = stmt.ExecContext(ctx,
			list, r.ID, r.ClientID, r.ClientName, r.ClientPhone, r.ClientAddress,
			r.MechanicShopID, r.MechanicUserID, r.ShopName, r.ShopAddress, r.ShopPhone,
			r.ClientLocation.Lat(), r.ClientLocation.Lng(),
			string(r.VehicleType), r.ProblemDescription, r.AISuggestion,
			string(r.Type), string(r.Status), r.Rating, r.Review,
			r.CreatedAt.UTC(), nullableTime(r.AcceptedAt), nullableTime(r.CompletedAt), now,
		)
		if err != nil {
			return fmt.Errorf("caching request %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetRequests returns the cached copy of one request list, newest first.
func (s *SQLiteStore) GetRequests(
	ctx context.Context,
	list string,
) ([]model.RepairRequest, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM requests WHERE list = ? ORDER BY created_at DESC", list,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached list %s: %w", list, err)
	}
	defer rows.Close()

	var requests []model.RepairRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// UpsertNotifications inserts or replaces notification records.
func (s *SQLiteStore) UpsertNotifications(
	ctx context.Context,
	notifications []model.Notification,
) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, user_id, type, title, message, request_id, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing notification upsert: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifications {
		_, err = stmt.ExecContext(ctx,
			n.ID, n.UserID, string(n.Type), n.Title, n.Message,
			n.RequestID, boolToInt(n.IsRead), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("caching notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications returns cached notifications, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// UpsertShops inserts or replaces shop records.
func (s *SQLiteStore) UpsertShops(ctx context.Context, shops []model.MechanicShop) error {
	if len(shops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO shops (
			id, user_id, shop_name, phone, address,
			latitude, longitude, shop_types, open_time, close_time,
			rating, total_ratings, is_available, services_offered, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing shop upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, shop := range shops {
		shopTypes, err := json.Marshal(shop.ShopTypes)
		if err != nil {
			return fmt.Errorf("marshaling shop types for %s: %w", shop.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			shop.ID, shop.UserID, shop.ShopName, shop.Phone, shop.Address,
			shop.Location.Lat(), shop.Location.Lng(),
			string(shopTypes), shop.OpenTime, shop.CloseTime,
			shop.Rating, shop.TotalRatings, boolToInt(shop.IsAvailable),
			shop.ServicesOffered, now,
		)
		if err != nil {
			return fmt.Errorf("caching shop %s: %w", shop.ID, err)
		}
	}

	return tx.Commit()
}

// GetShops returns all cached shops.
func (s *SQLiteStore) GetShops(ctx context.Context) ([]model.MechanicShop, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM shops ORDER BY shop_name")
	if err != nil {
		return nil, fmt.Errorf("querying cached shops: %w", err)
	}
	defer rows.Close()

	var shops []model.MechanicShop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}

	return shops, rows.Err()
}

// Clear wipes the cache.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	for _, table := range []string{"requests", "notifications", "shops"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// scanRequest scans a request row from a sqlx.Rows result set.
func scanRequest(rows *sqlx.Rows) (model.RepairRequest, error) {
	var (
		r           model.RepairRequest
		list        string
		lat, lng    float64
		vehicleType string
		reqType     string
		status      string
		createdAt   time.Time
		acceptedAt  sql.NullTime
		completedAt sql.NullTime
		fetchedAt   time.Time
	)

	err := rows.Scan(
		&list, &r.ID, &r.ClientID, &r.ClientName, &r.ClientPhone, &r.ClientAddress,
		&r.MechanicShopID, &r.MechanicUserID, &r.ShopName, &r.ShopAddress, &r.ShopPhone,
		&lat, &lng, &vehicleType, &r.ProblemDescription, &r.AISuggestion,
		&reqType, &status, &r.Rating, &r.Review,
		&createdAt, &acceptedAt, &completedAt, &fetchedAt,
	)
	if err != nil {
		return model.RepairRequest{}, fmt.Errorf("scanning request row: %w", err)
	}

	r.ClientLocation = model.NewGeoPoint(lat, lng)
	r.VehicleType = model.VehicleType(vehicleType)
	r.Type = model.RequestType(reqType)
	r.Status = model.Status(status)
	r.CreatedAt = model.Time{Time: createdAt}
	if acceptedAt.Valid {
		r.AcceptedAt = model.Time{Time: acceptedAt.Time}
	}
	if completedAt.Valid {
		r.CompletedAt = model.Time{Time: completedAt.Time}
	}

	return r, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		eventType string
		readInt   int
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &eventType, &n.Title, &n.Message,
		&n.RequestID, &readInt, &createdAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.EventType(eventType)
	n.IsRead = readInt != 0
	n.CreatedAt = model.Time{Time: createdAt}

	return n, nil
}

// scanShop scans a shop row from a sqlx.Rows result set.
func scanShop(rows *sqlx.Rows) (model.MechanicShop, error) {
	var (
		shop         model.MechanicShop
		lat, lng     float64
		shopTypes    string
		availableInt int
		fetchedAt    time.Time
	)

	err := rows.Scan(
		&shop.ID, &shop.UserID, &shop.ShopName, &shop.Phone, &shop.Address,
		&lat, &lng, &shopTypes, &shop.OpenTime, &shop.CloseTime,
		&shop.Rating, &shop.TotalRatings, &availableInt,
		&shop.ServicesOffered, &fetchedAt,
	)
	if err != nil {
		return model.MechanicShop{}, fmt.Errorf("scanning shop row: %w", err)
	}

	shop.Location = model.NewGeoPoint(lat, lng)
	shop.IsAvailable = availableInt != 0

	if shopTypes != "" {
		if err := json.Unmarshal([]byte(shopTypes), &shop.ShopTypes); err != nil {
			return model.MechanicShop{}, fmt.Errorf("unmarshaling shop types: %w", err)
		}
	}

	return shop, nil
}

// nullableTime converts a zero model.Time into a SQL NULL.
func nullableTime(t model.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
