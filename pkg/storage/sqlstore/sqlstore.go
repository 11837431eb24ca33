// Package sqlstore implements the pet repository on a relational table.
// Cats, dogs and generic pets each get their own table with the same columns.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
)

// Tables that share the pet layout
var Tables = []string{"pets", "cats", "dogs"}

// Dialect captures the differences between the supported databases
type Dialect struct {
	Name   string
	Driver string
	// Placeholder renders the n-th (1-based) bind parameter
	Placeholder func(n int) string
}

var (
	// Postgres uses $n placeholders
	Postgres = Dialect{
		Name:        storage.TypePostgres,
		Driver:      "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
	// SQLite uses ? placeholders
	SQLite = Dialect{
		Name:        storage.TypeSQLite,
		Driver:      "sqlite3",
		Placeholder: func(int) string { return "?" },
	}
)

// DialectFor returns the dialect for a storage type
func DialectFor(storageType string) (Dialect, error) {
	switch storageType {
	case storage.TypePostgres:
		return Postgres, nil
	case storage.TypeSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql storage type: %s", storageType)
	}
}

// Repository implements pets.Repository against one table
type Repository struct {
	db      *sql.DB
	dialect Dialect
	table   string
	mu      sync.Mutex // serialises id allocation within this process
}

// Open connects using the storage configuration and pings the database
func Open(ctx context.Context, cfg storage.Config) (*Repository, error) {
	dialect, err := DialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, cfg.SQLURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect.Name, err)
	}

	if cfg.SQLMaxConns > 0 {
		db.SetMaxOpenConns(cfg.SQLMaxConns)
	}
	if dialect.Name == storage.TypeSQLite {
		// one writer at a time, and :memory: databases live per connection
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	timeout := cfg.SQLTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name, err)
	}

	repo, err := New(db, dialect, cfg.SQLTable)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an open database. table must be one of Tables.
func New(db *sql.DB, dialect Dialect, table string) (*Repository, error) {
	if table == "" {
		table = "pets"
	}
	if !validTable(table) {
		return nil, fmt.Errorf("unknown pet table %q (want one of %s)", table, strings.Join(Tables, ", "))
	}
	return &Repository{db: db, dialect: dialect, table: table}, nil
}

func validTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}

// DB returns the underlying database handle
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Name identifies the backend in logs and metrics
func (r *Repository) Name() string {
	return r.dialect.Name
}

// Table returns the table the repository works on
func (r *Repository) Table() string {
	return r.table
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// Migrate creates the table if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	breed TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL
)`, r.table)

	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", r.table, err)
	}
	return nil
}

// Seed replaces the table contents with the fixture catalog
func (r *Repository) Seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+r.table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.table, err)
	}

	seed := pets.SeedCatalog()
	ids := make([]string, 0, len(seed))
	for id := range seed {
		ids = append(ids, id)
	}
	pets.SortIDs(ids)

	for _, id := range ids {
		n, _ := strconv.ParseInt(id, 10, 64)
		if err := r.insert(ctx, tx, n, seed[id]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List implements pets.Repository.List
func (r *Repository) List(ctx context.Context) (pets.Catalog, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT id, name, breed, price FROM %s ORDER BY id", r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	catalog := pets.Catalog{}
	for rows.Next() {
		var id int64
		var pet pets.Pet
		if err := rows.Scan(&id, &pet.Name, &pet.Breed, &pet.Price); err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		catalog[strconv.FormatInt(id, 10)] = pet
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return catalog, nil
}

// Get implements pets.Repository.Get
func (r *Repository) Get(ctx context.Context, id string) (pets.Pet, error) {
	n, err := parseID(id)
	if err != nil {
		return pets.Pet{}, err
	}

	query := fmt.Sprintf("SELECT name, breed, price FROM %s WHERE id = %s", r.table, r.dialect.Placeholder(1))

	var pet pets.Pet
	err = r.db.QueryRowContext(ctx, query, n).Scan(&pet.Name, &pet.Breed, &pet.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}
	if err != nil {
		return pets.Pet{}, fmt.Errorf("failed to get pet %s: %w", id, err)
	}
	return pet, nil
}

// Add implements pets.Repository.Add. The new id is max(id)+1; an empty
// table has no id to derive from and returns pets.ErrEmptyStore.
func (r *Repository) Add(ctx context.Context, pet pets.Pet) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var highest sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(id) FROM "+r.table).Scan(&highest); err != nil {
		return "", fmt.Errorf("failed to read highest id: %w", err)
	}
	if !highest.Valid {
		return "", pets.ErrEmptyStore
	}
	if highest.Int64 == math.MaxInt64 {
		return "", fmt.Errorf("%w: %d", pets.ErrIDExhausted, highest.Int64)
	}

	next := highest.Int64 + 1
	if err := r.insert(ctx, tx, next, pet); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit pet: %w", err)
	}
	return strconv.FormatInt(next, 10), nil
}

// Update implements pets.Repository.Update
func (r *Repository) Update(ctx context.Context, id string, pet pets.Pet) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	p := r.dialect.Placeholder
	query := fmt.Sprintf("UPDATE %s SET name = %s, breed = %s, price = %s WHERE id = %s",
		r.table, p(1), p(2), p(3), p(4))

	res, err := r.db.ExecContext(ctx, query, pet.Name, pet.Breed, pet.Price, n)
	if err != nil {
		return fmt.Errorf("failed to update pet %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// Remove implements pets.Repository.Remove
func (r *Repository) Remove(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", r.table, r.dialect.Placeholder(1))

	res, err := r.db.ExecContext(ctx, query, n)
	if err != nil {
		return fmt.Errorf("failed to remove pet %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (r *Repository) insert(ctx context.Context, tx *sql.Tx, id int64, pet pets.Pet) error {
	p := r.dialect.Placeholder
	query := fmt.Sprintf("INSERT INTO %s (id, name, breed, price) VALUES (%s, %s, %s, %s)",
		r.table, p(1), p(2), p(3), p(4))

	if _, err := tx.ExecContext(ctx, query, id, pet.Name, pet.Breed, pet.Price); err != nil {
		return fmt.Errorf("failed to insert pet %d: %w", id, err)
	}
	return nil
}

// parseID maps ids that cannot be table keys to not found. Only the
// canonical form is a key, so "01" and "+1" do not alias pet 1.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != id {
		return 0, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}
	return n, nil
}

func expectOneRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}
	return nil
}
