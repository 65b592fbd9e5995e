// Package book stores a budget in a single SQLite file.
//
// A Book is an explicit handle on one open file: there is no global state and
// several books can be open at once. A file can only be opened by one handle
// at a time, an advisory lock on a sibling ".lock" file enforces it.
package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/etnz/budget/date"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"
)

var (
	// ErrBookOpen is returned when the book is already open by another handle
	// or process. It is never retried.
	ErrBookOpen = errors.New("book is already open")
	// ErrNotFound is returned for missing rows.
	ErrNotFound = errors.New("not found")
	// ErrLinked is returned when linking a row that is already linked.
	ErrLinked = errors.New("transaction is already linked")
)

// busyTimeout is how long SQLite waits on a locked database, in milliseconds.
const busyTimeout = 5000

// Book is an open budget file.
type Book struct {
	path string
	db   *sql.DB
	lock *os.File
	log  zerolog.Logger
	now  func() time.Time

	// afterUnlink is called between the two phases of Delete.
	afterUnlink func(id int64) error
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger of the book. Books do not log by default.
func WithLogger(log zerolog.Logger) Option { return func(b *Book) { b.log = log } }

// WithClock sets the clock used for creation timestamps and for "today".
func WithClock(now func() time.Time) Option { return func(b *Book) { b.now = now } }

// Open opens the book at path, creating it if needed, and brings its schema
// up to date.
func Open(ctx context.Context, path string, opts ...Option) (*Book, error) {
	b := &Book{path: path, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, err
	}
	b.lock = lock

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, busyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		b.releaseLock()
		return nil, fmt.Errorf("cannot open book %q: %w", path, err)
	}
	// one connection: pragmas are per connection, and SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)
	b.db = db

	if err := b.migrate(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("cannot open book %q: %w", path, err)
	}
	if err := b.cleanupDismissals(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("cannot open book %q: %w", path, err)
	}
	b.log.Debug().Str("book", path).Msg("book opened")
	return b, nil
}

// Close closes the book and releases its lock.
func (b *Book) Close() error {
	var errs error
	if b.db != nil {
		errs = errors.Join(errs, b.db.Close())
		b.db = nil
	}
	errs = errors.Join(errs, b.releaseLock())
	return errs
}

// Path returns the file of the book.
func (b *Book) Path() string { return b.path }

// Today returns the current day according to the book clock.
func (b *Book) Today() date.Date { return date.New(b.now().Date()) }

func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot create lock %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrBookOpen, path)
		}
		return nil, fmt.Errorf("cannot lock %q: %w", path, err)
	}
	return f, nil
}

func (b *Book) releaseLock() error {
	if b.lock == nil {
		return nil
	}
	unix.Flock(int(b.lock.Fd()), unix.LOCK_UN)
	err := b.lock.Close()
	b.lock = nil
	return err
}

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a SQL transaction, committed only if fn succeeds.
func (b *Book) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, ignoreDone(tx.Rollback()))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit transaction: %w", err)
	}
	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// timestamp formats creation times so that they sort as text.
const timestamp = "2006-01-02T15:04:05.000000000Z07:00"

func (b *Book) stamp() string { return b.now().UTC().Format(timestamp) }

func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(timestamp, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}
