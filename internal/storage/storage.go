package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dshills/geosoft-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying parsed SOFT documents
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, accession string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, accession string) error

	// Entity operations
	InsertEntity(ctx context.Context, entity *Entity) error
	GetEntity(ctx context.Context, documentID int64, key types.EntityKey) (*Entity, error)
	ListEntities(ctx context.Context, documentID int64, kind types.EntityKind) ([]*Entity, error)

	// Attribute operations
	InsertAttributes(ctx context.Context, entityID int64, attrs []Attribute) error
	ListAttributes(ctx context.Context, entityID int64) ([]Attribute, error)
	SearchAttributes(ctx context.Context, query string, limit int) ([]AttributeMatch, error)

	// Header and table operations
	InsertColumnDescriptions(ctx context.Context, entityID int64, cols []ColumnDescription) error
	ListColumnDescriptions(ctx context.Context, entityID int64) ([]ColumnDescription, error)
	InsertTableRows(ctx context.Context, entityID int64, rows [][]string) error
	ListTableRows(ctx context.Context, entityID int64, offset, limit int) ([][]string, error)
	GetTable(ctx context.Context, entityID int64) (*types.Table, error)

	// Warning operations
	InsertWarnings(ctx context.Context, documentID int64, warnings []types.Warning) error
	ListWarnings(ctx context.Context, documentID int64) ([]types.Warning, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Document is one loaded SOFT file
type Document struct {
	ID           int64
	Accession    string
	Source       string // URL or local path the file came from
	LoadID       string
	Full         bool
	EntityCount  int
	WarningCount int
	LoadedAt     time.Time
	CreatedAt    time.Time
}

// Entity is one ^KIND = NAME block of a document
type Entity struct {
	ID           int64
	DocumentID   int64
	Kind         types.EntityKind
	Name         string
	Position     int
	HasDataTable bool
	TableColumns []string
	RowCount     int
	TableError   *string // Nullable
}

// Key returns the entity key
func (e *Entity) Key() types.EntityKey {
	return types.EntityKey{Kind: e.Kind, Name: e.Name}
}

// Attribute is one attribute slot of an entity.
// Slot is "unset", "scalar" or "list".
type Attribute struct {
	Name     string
	Slot     string
	Values   []string
	Position int
}

// valueSeparator joins attribute values for storage. SOFT values are single
// lines so a newline never occurs inside one value.
const valueSeparator = "\n"

func joinValues(values []string) string {
	return strings.Join(values, valueSeparator)
}

func splitValues(joined string, count int) []string {
	if count == 0 {
		return []string{}
	}
	return strings.SplitN(joined, valueSeparator, count)
}

// ColumnDescription is one # header line
type ColumnDescription struct {
	Column      string
	Description string
	Position    int
}

// AttributeMatch is a full-text search hit
type AttributeMatch struct {
	Accession string
	Entity    types.EntityKey
	Attribute string
	Values    []string
	Score     float64
}

// Status contains statistics about the store
type Status struct {
	Documents     int
	Entities      int
	Attributes    int
	TableRows     int
	Warnings      int
	SchemaVersion string
	BuildMode     string
	SizeMB        float64
	LastLoadedAt  time.Time
	Health        HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexBuilt      bool
}
