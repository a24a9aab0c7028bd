// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/errors"
	"github.com/karasolutions/mediascan-go/internal/observability/metrics"
)

// Sentinel errors returned by the message operations. ErrMessageNotFound is a
// normal absence signal for lookups and deletes, not a failure.
var (
	ErrMessageNotFound = errors.NewStd("message not found")
	ErrMessageExists   = errors.NewStd("message already exists")
)

// Interface abstracts the underlying database implementation and defines the
// operations of the relational sink and the message record store.
type Interface interface {
	// Open connects to the store and ensures the schema exists. It is
	// idempotent and safe to call on every process start.
	Open() error
	Close() error

	// BulkUpsertMessages inserts the rows in one all-or-nothing transaction.
	// A message_id collision leaves the existing row untouched and does not
	// fail the batch (first-write-wins).
	BulkUpsertMessages(messages []Message) error

	// InsertDetections appends the rows unconditionally in one transaction.
	InsertDetections(detections []Detection) error

	// CreateMessage is the strict single-record path: a message_id collision
	// fails with ErrMessageExists instead of being silently deduplicated.
	CreateMessage(message *Message) error
	GetMessage(messageID int64) (*Message, error)
	ListMessages() ([]Message, error)
	DeleteMessage(messageID int64) (*Message, error)

	GetAllDetections() ([]Detection, error)
	CountDetections() (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB
	logger  *slog.Logger
	metrics *metrics.DatastoreMetrics
}

// New creates a new datastore instance for the backend selected in settings.
// The logger and metrics handles are passed in so the store stays testable in
// isolation; both may be nil.
func New(settings *conf.Settings, logger *slog.Logger, m *metrics.DatastoreMetrics) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: DataStore{logger: logger, metrics: m},
			Settings:  settings,
		}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			DataStore: DataStore{logger: logger, metrics: m},
			Settings:  settings,
		}, nil
	default:
		return nil, errors.Newf("no database output enabled in settings").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// performAutoMigration creates or updates the messages and detections tables.
// AutoMigrate is additive and does not fail when the tables already exist
// with a compatible shape.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string, logger *slog.Logger) error {
	if err := db.AutoMigrate(&Message{}, &Detection{}); err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}

	if debug && logger != nil {
		logger.Debug("database schema ensured", "db_type", dbType, "connection", connectionInfo)
	}

	return nil
}

// recordOp reports the outcome of a database operation to the metrics
// collector, if one is attached.
func (ds *DataStore) recordOp(operation, table string, start time.Time, rows int, err error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordDbOperationDuration(operation, table, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrMessageNotFound) {
		ds.metrics.RecordDbOperation(operation, table, "error")
		ds.metrics.RecordDbOperationError(operation, table, categorizeDbError(err))
		return
	}
	ds.metrics.RecordDbOperation(operation, table, "success")
	ds.metrics.RecordQueryResultSize(operation, table, rows)
}

// categorizeDbError maps store errors onto a small label set for metrics.
func categorizeDbError(err error) string {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "duplicate_key"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found"
	default:
		return "query_error"
	}
}
