package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dshills/geosoft-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate document
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the database at dbPath and migrates it
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to apply migrations")
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Document operations

const documentColumns = `id, accession, source, load_id, full_variant, entity_count, warning_count, loaded_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var loadedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Accession, &doc.Source, &doc.LoadID, &doc.Full,
		&doc.EntityCount, &doc.WarningCount, &loadedAt, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if loadedAt.Valid {
		doc.LoadedAt = loadedAt.Time
	}
	return &doc, nil
}

func (s *SQLiteStorage) createDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (accession, source, load_id, full_variant, entity_count, warning_count, loaded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	if doc.LoadedAt.IsZero() {
		doc.LoadedAt = now
	}
	result, err := q.ExecContext(ctx, query,
		doc.Accession, doc.Source, doc.LoadID, doc.Full,
		doc.EntityCount, doc.WarningCount, doc.LoadedAt, now)
	if isUniqueViolation(err) {
		return errors.Wrapf(ErrAlreadyExists, "document %s", doc.Accession)
	}
	if err != nil {
		return errors.Wrap(err, "failed to create document")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	doc.ID = id
	doc.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *Document) error {
	return s.createDocumentWithQuerier(ctx, s.querier(), doc)
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, accession string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE accession = ?`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, accession))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "document %s", accession)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, accession string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), accession)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY accession`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier())
}

// deleteDocumentWithQuerier removes a document; entities, attributes, rows
// and warnings go with it through ON DELETE CASCADE
func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, accession string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM documents WHERE accession = ?`, accession)
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "document %s", accession)
	}
	return nil
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, accession string) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), accession)
}

// Entity operations

const entityColumns = `id, document_id, kind, name, position, has_data_table, table_columns, row_count, table_error`

func scanEntity(row rowScanner) (*Entity, error) {
	var e Entity
	var kind string
	var columns, tableErr sql.NullString
	err := row.Scan(&e.ID, &e.DocumentID, &kind, &e.Name, &e.Position,
		&e.HasDataTable, &columns, &e.RowCount, &tableErr)
	if err != nil {
		return nil, err
	}
	e.Kind = types.EntityKind(kind)
	if columns.Valid && columns.String != "" {
		if err := json.Unmarshal([]byte(columns.String), &e.TableColumns); err != nil {
			return nil, errors.Wrapf(err, "invalid table columns for entity %d", e.ID)
		}
	}
	if tableErr.Valid {
		e.TableError = &tableErr.String
	}
	return &e, nil
}

func (s *SQLiteStorage) insertEntityWithQuerier(ctx context.Context, q querier, e *Entity) error {
	var columns sql.NullString
	if e.TableColumns != nil {
		b, err := json.Marshal(e.TableColumns)
		if err != nil {
			return errors.Wrap(err, "failed to encode table columns")
		}
		columns = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO entities (document_id, kind, name, position, has_data_table, table_columns, row_count, table_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		e.DocumentID, string(e.Kind), e.Name, e.Position,
		e.HasDataTable, columns, e.RowCount, e.TableError).Scan(&e.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to insert entity %s", e.Key())
	}
	return nil
}

func (s *SQLiteStorage) InsertEntity(ctx context.Context, e *Entity) error {
	return s.insertEntityWithQuerier(ctx, s.querier(), e)
}

func (s *SQLiteStorage) getEntityWithQuerier(ctx context.Context, q querier, documentID int64, key types.EntityKey) (*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE document_id = ? AND kind = ? AND name = ?`
	e, err := scanEntity(q.QueryRowContext(ctx, query, documentID, string(key.Kind), key.Name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "entity %s", key)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SQLiteStorage) GetEntity(ctx context.Context, documentID int64, key types.EntityKey) (*Entity, error) {
	return s.getEntityWithQuerier(ctx, s.querier(), documentID, key)
}

// listEntitiesWithQuerier returns entities in document order; an empty kind
// matches every kind
func (s *SQLiteStorage) listEntitiesWithQuerier(ctx context.Context, q querier, documentID int64, kind types.EntityKind) ([]*Entity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE document_id = ? AND (? = '' OR kind = ?)
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, documentID, string(kind), string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entities := make([]*Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *SQLiteStorage) ListEntities(ctx context.Context, documentID int64, kind types.EntityKind) ([]*Entity, error) {
	return s.listEntitiesWithQuerier(ctx, s.querier(), documentID, kind)
}

// Attribute operations

func (s *SQLiteStorage) insertAttributesWithQuerier(ctx context.Context, q querier, entityID int64, attrs []Attribute) error {
	query := `
		INSERT INTO attributes (entity_id, position, name, slot, value_count, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, a := range attrs {
		_, err := q.ExecContext(ctx, query, entityID, i, a.Name, a.Slot, len(a.Values), joinValues(a.Values))
		if err != nil {
			return errors.Wrapf(err, "failed to insert attribute %s", a.Name)
		}
	}
	return nil
}

func (s *SQLiteStorage) InsertAttributes(ctx context.Context, entityID int64, attrs []Attribute) error {
	return s.insertAttributesWithQuerier(ctx, s.querier(), entityID, attrs)
}

func (s *SQLiteStorage) listAttributesWithQuerier(ctx context.Context, q querier, entityID int64) ([]Attribute, error) {
	query := `
		SELECT position, name, slot, value_count, value
		FROM attributes
		WHERE entity_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	attrs := make([]Attribute, 0)
	for rows.Next() {
		var a Attribute
		var count int
		var joined string
		if err := rows.Scan(&a.Position, &a.Name, &a.Slot, &count, &joined); err != nil {
			return nil, err
		}
		a.Values = splitValues(joined, count)
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

func (s *SQLiteStorage) ListAttributes(ctx context.Context, entityID int64) ([]Attribute, error) {
	return s.listAttributesWithQuerier(ctx, s.querier(), entityID)
}

// ftsQuery quotes every whitespace-separated term so punctuation such as the
// dash in "GPL-570" is matched literally instead of parsed as FTS5 syntax
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func (s *SQLiteStorage) searchAttributesWithQuerier(ctx context.Context, q querier, query string, limit int) ([]AttributeMatch, error) {
	match := ftsQuery(query)
	if match == "" {
		return []AttributeMatch{}, nil
	}

	// bm25() is lower for better matches, so it is negated for the score
	sqlQuery := `
		SELECT d.accession, e.kind, e.name, a.name, a.value_count, a.value, bm25(attributes_fts) AS score
		FROM attributes_fts
		JOIN attributes a ON a.id = attributes_fts.rowid
		JOIN entities e ON e.id = a.entity_id
		JOIN documents d ON d.id = e.document_id
		WHERE attributes_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, sqlQuery, match, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search attributes")
	}
	defer func() { _ = rows.Close() }()

	matches := make([]AttributeMatch, 0)
	for rows.Next() {
		var m AttributeMatch
		var kind, joined string
		var count int
		if err := rows.Scan(&m.Accession, &kind, &m.Entity.Name, &m.Attribute, &count, &joined, &m.Score); err != nil {
			return nil, err
		}
		m.Entity.Kind = types.EntityKind(kind)
		m.Values = splitValues(joined, count)
		m.Score = -m.Score
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *SQLiteStorage) SearchAttributes(ctx context.Context, query string, limit int) ([]AttributeMatch, error) {
	return s.searchAttributesWithQuerier(ctx, s.querier(), query, limit)
}

// Header and table operations

func (s *SQLiteStorage) insertColumnDescriptionsWithQuerier(ctx context.Context, q querier, entityID int64, cols []ColumnDescription) error {
	query := `
		INSERT INTO column_descriptions (entity_id, position, column_name, description)
		VALUES (?, ?, ?, ?)
	`
	for i, c := range cols {
		if _, err := q.ExecContext(ctx, query, entityID, i, c.Column, c.Description); err != nil {
			return errors.Wrapf(err, "failed to insert column description %s", c.Column)
		}
	}
	return nil
}

func (s *SQLiteStorage) InsertColumnDescriptions(ctx context.Context, entityID int64, cols []ColumnDescription) error {
	return s.insertColumnDescriptionsWithQuerier(ctx, s.querier(), entityID, cols)
}

func (s *SQLiteStorage) listColumnDescriptionsWithQuerier(ctx context.Context, q querier, entityID int64) ([]ColumnDescription, error) {
	query := `
		SELECT position, column_name, description
		FROM column_descriptions
		WHERE entity_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols := make([]ColumnDescription, 0)
	for rows.Next() {
		var c ColumnDescription
		if err := rows.Scan(&c.Position, &c.Column, &c.Description); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *SQLiteStorage) ListColumnDescriptions(ctx context.Context, entityID int64) ([]ColumnDescription, error) {
	return s.listColumnDescriptionsWithQuerier(ctx, s.querier(), entityID)
}

func (s *SQLiteStorage) insertTableRowsWithQuerier(ctx context.Context, q querier, entityID int64, rows [][]string) error {
	query := `INSERT INTO table_rows (entity_id, row_index, cells) VALUES (?, ?, ?)`
	for i, cells := range rows {
		b, err := json.Marshal(cells)
		if err != nil {
			return errors.Wrap(err, "failed to encode row")
		}
		if _, err := q.ExecContext(ctx, query, entityID, i, string(b)); err != nil {
			return errors.Wrapf(err, "failed to insert row %d", i)
		}
	}
	return nil
}

func (s *SQLiteStorage) InsertTableRows(ctx context.Context, entityID int64, rows [][]string) error {
	return s.insertTableRowsWithQuerier(ctx, s.querier(), entityID, rows)
}

// listTableRowsWithQuerier returns rows in table order. A limit <= 0 returns
// every row from offset on.
func (s *SQLiteStorage) listTableRowsWithQuerier(ctx context.Context, q querier, entityID int64, offset, limit int) ([][]string, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT cells FROM table_rows
		WHERE entity_id = ?
		ORDER BY row_index
		LIMIT ? OFFSET ?
	`
	rows, err := q.QueryContext(ctx, query, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([][]string, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, errors.Wrap(err, "invalid stored row")
		}
		result = append(result, cells)
	}
	return result, rows.Err()
}

func (s *SQLiteStorage) ListTableRows(ctx context.Context, entityID int64, offset, limit int) ([][]string, error) {
	return s.listTableRowsWithQuerier(ctx, s.querier(), entityID, offset, limit)
}

func (s *SQLiteStorage) getTableWithQuerier(ctx context.Context, q querier, entityID int64) (*types.Table, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = ?`
	e, err := scanEntity(q.QueryRowContext(ctx, query, entityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "entity %d", entityID)
	}
	if err != nil {
		return nil, err
	}
	if !e.HasDataTable || e.TableColumns == nil {
		return nil, errors.Wrapf(ErrNotFound, "data table for %s", e.Key())
	}

	rows, err := s.listTableRowsWithQuerier(ctx, q, entityID, 0, 0)
	if err != nil {
		return nil, err
	}
	return &types.Table{Columns: e.TableColumns, Rows: rows}, nil
}

// GetTable reassembles an entity's data table
func (s *SQLiteStorage) GetTable(ctx context.Context, entityID int64) (*types.Table, error) {
	return s.getTableWithQuerier(ctx, s.querier(), entityID)
}

// Warning operations

func (s *SQLiteStorage) insertWarningsWithQuerier(ctx context.Context, q querier, documentID int64, warnings []types.Warning) error {
	query := `
		INSERT INTO warnings (document_id, entity_kind, entity_name, attribute, code, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, w := range warnings {
		_, err := q.ExecContext(ctx, query, documentID,
			string(w.Entity.Kind), w.Entity.Name, w.Attribute, string(w.Code), w.Message)
		if err != nil {
			return errors.Wrap(err, "failed to insert warning")
		}
	}
	return nil
}

func (s *SQLiteStorage) InsertWarnings(ctx context.Context, documentID int64, warnings []types.Warning) error {
	return s.insertWarningsWithQuerier(ctx, s.querier(), documentID, warnings)
}

func (s *SQLiteStorage) listWarningsWithQuerier(ctx context.Context, q querier, documentID int64) ([]types.Warning, error) {
	query := `
		SELECT entity_kind, entity_name, attribute, code, message
		FROM warnings
		WHERE document_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	warnings := make([]types.Warning, 0)
	for rows.Next() {
		var w types.Warning
		var kind, code string
		if err := rows.Scan(&kind, &w.Entity.Name, &w.Attribute, &code, &w.Message); err != nil {
			return nil, err
		}
		w.Entity.Kind = types.EntityKind(kind)
		w.Code = types.WarningCode(code)
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

func (s *SQLiteStorage) ListWarnings(ctx context.Context, documentID int64) ([]types.Warning, error) {
	return s.listWarningsWithQuerier(ctx, s.querier(), documentID)
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{BuildMode: BuildMode}

	counts := []struct {
		table string
		dst   *int
	}{
		{"documents", &status.Documents},
		{"entities", &status.Entities},
		{"attributes", &status.Attributes},
		{"table_rows", &status.TableRows},
		{"warnings", &status.Warnings},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, errors.Wrapf(err, "failed to count %s", c.table)
		}
	}

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version

	var lastLoaded sql.NullTime
	err = s.db.QueryRowContext(ctx, "SELECT loaded_at FROM documents ORDER BY loaded_at DESC LIMIT 1").Scan(&lastLoaded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if lastLoaded.Valid {
		status.LastLoadedAt = lastLoaded.Time
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var ftsName string
	ftsErr := s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'attributes_fts'").Scan(&ftsName)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexBuilt:      ftsErr == nil,
	}

	return status, nil
}

// Transaction implementations delegate to the storage helpers with the tx querier

func (t *sqliteTx) CreateDocument(ctx context.Context, doc *Document) error {
	return t.storage.createDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, accession string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), accession)
}

func (t *sqliteTx) ListDocuments(ctx context.Context) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, accession string) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), accession)
}

func (t *sqliteTx) InsertEntity(ctx context.Context, e *Entity) error {
	return t.storage.insertEntityWithQuerier(ctx, t.querier(), e)
}

func (t *sqliteTx) GetEntity(ctx context.Context, documentID int64, key types.EntityKey) (*Entity, error) {
	return t.storage.getEntityWithQuerier(ctx, t.querier(), documentID, key)
}

func (t *sqliteTx) ListEntities(ctx context.Context, documentID int64, kind types.EntityKind) ([]*Entity, error) {
	return t.storage.listEntitiesWithQuerier(ctx, t.querier(), documentID, kind)
}

func (t *sqliteTx) InsertAttributes(ctx context.Context, entityID int64, attrs []Attribute) error {
	return t.storage.insertAttributesWithQuerier(ctx, t.querier(), entityID, attrs)
}

func (t *sqliteTx) ListAttributes(ctx context.Context, entityID int64) ([]Attribute, error) {
	return t.storage.listAttributesWithQuerier(ctx, t.querier(), entityID)
}

func (t *sqliteTx) SearchAttributes(ctx context.Context, query string, limit int) ([]AttributeMatch, error) {
	return t.storage.searchAttributesWithQuerier(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) InsertColumnDescriptions(ctx context.Context, entityID int64, cols []ColumnDescription) error {
	return t.storage.insertColumnDescriptionsWithQuerier(ctx, t.querier(), entityID, cols)
}

func (t *sqliteTx) ListColumnDescriptions(ctx context.Context, entityID int64) ([]ColumnDescription, error) {
	return t.storage.listColumnDescriptionsWithQuerier(ctx, t.querier(), entityID)
}

func (t *sqliteTx) InsertTableRows(ctx context.Context, entityID int64, rows [][]string) error {
	return t.storage.insertTableRowsWithQuerier(ctx, t.querier(), entityID, rows)
}

func (t *sqliteTx) ListTableRows(ctx context.Context, entityID int64, offset, limit int) ([][]string, error) {
	return t.storage.listTableRowsWithQuerier(ctx, t.querier(), entityID, offset, limit)
}

func (t *sqliteTx) GetTable(ctx context.Context, entityID int64) (*types.Table, error) {
	return t.storage.getTableWithQuerier(ctx, t.querier(), entityID)
}

func (t *sqliteTx) InsertWarnings(ctx context.Context, documentID int64, warnings []types.Warning) error {
	return t.storage.insertWarningsWithQuerier(ctx, t.querier(), documentID, warnings)
}

func (t *sqliteTx) ListWarnings(ctx context.Context, documentID int64) ([]types.Warning, error) {
	return t.storage.listWarningsWithQuerier(ctx, t.querier(), documentID)
}

// GetStatus needs its own connection, which the single-connection pool
// cannot hand out while the transaction holds it
func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return nil, errors.New("GetStatus not supported in transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
