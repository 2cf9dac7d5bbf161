package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/geosoft-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func createDocument(t *testing.T, storage *SQLiteStorage, accession string) *Document {
	t.Helper()
	doc := &Document{Accession: accession, Source: "/tmp/" + accession + ".soft", LoadID: "load-1"}
	require.NoError(t, storage.CreateDocument(context.Background(), doc))
	return doc
}

func createEntity(t *testing.T, storage *SQLiteStorage, docID int64, kind types.EntityKind, name string, pos int) *Entity {
	t.Helper()
	e := &Entity{DocumentID: docID, Kind: kind, Name: name, Position: pos}
	require.NoError(t, storage.InsertEntity(context.Background(), e))
	return e
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
}

func TestClose(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Close()
	assert.NoError(t, err)
}

func TestCreateDocument(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE100")
	assert.Greater(t, doc.ID, int64(0))
	assert.False(t, doc.LoadedAt.IsZero())

	// Try to create duplicate - should fail
	err := storage.CreateDocument(ctx, &Document{Accession: "GSE100", Source: "x", LoadID: "load-2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetDocument(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := &Document{Accession: "GDS507", Source: "https://example.org/GDS507_full.soft.gz", LoadID: "abc", Full: true, EntityCount: 3, WarningCount: 1}
	require.NoError(t, storage.CreateDocument(ctx, doc))

	retrieved, err := storage.GetDocument(ctx, "GDS507")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Source, retrieved.Source)
	assert.Equal(t, "abc", retrieved.LoadID)
	assert.True(t, retrieved.Full)
	assert.Equal(t, 3, retrieved.EntityCount)
	assert.Equal(t, 1, retrieved.WarningCount)
}

func TestGetDocument_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetDocument(context.Background(), "GSE404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	createDocument(t, storage, "GSE2")
	createDocument(t, storage, "GPL1")

	docs, err := storage.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "GPL1", docs[0].Accession)
	assert.Equal(t, "GSE2", docs[1].Accession)
}

func TestDeleteDocument_Cascades(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE1")
	e := createEntity(t, storage, doc.ID, types.KindSample, "GSM1", 0)
	require.NoError(t, storage.InsertAttributes(ctx, e.ID, []Attribute{{Name: "Sample_title", Slot: "scalar", Values: []string{"liver"}}}))
	require.NoError(t, storage.InsertTableRows(ctx, e.ID, [][]string{{"p1", "1.0"}}))
	require.NoError(t, storage.InsertWarnings(ctx, doc.ID, []types.Warning{{Entity: e.Key(), Attribute: "x", Code: types.WarnMissingObligation, Message: "m"}}))

	require.NoError(t, storage.DeleteDocument(ctx, "GSE1"))

	_, err := storage.GetDocument(ctx, "GSE1")
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Entities)
	assert.Zero(t, status.Attributes)
	assert.Zero(t, status.TableRows)
	assert.Zero(t, status.Warnings)

	assert.ErrorIs(t, storage.DeleteDocument(ctx, "GSE1"), ErrNotFound)
}

func TestEntities(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE1")
	createEntity(t, storage, doc.ID, types.KindSeries, "GSE1", 0)
	createEntity(t, storage, doc.ID, types.KindSample, "GSM2", 2)
	msg := "row 3 has 4 cells, header has 2"
	platform := &Entity{
		DocumentID:   doc.ID,
		Kind:         types.KindPlatform,
		Name:         "GPL1",
		Position:     1,
		HasDataTable: true,
		TableColumns: []string{"ID", "SEQ"},
		RowCount:     2,
		TableError:   &msg,
	}
	require.NoError(t, storage.InsertEntity(ctx, platform))

	all, err := storage.ListEntities(ctx, doc.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "GSE1", all[0].Name)
	assert.Equal(t, "GPL1", all[1].Name)
	assert.Equal(t, "GSM2", all[2].Name)

	samples, err := storage.ListEntities(ctx, doc.ID, types.KindSample)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	none, err := storage.ListEntities(ctx, doc.ID, types.KindDataset)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	got, err := storage.GetEntity(ctx, doc.ID, types.EntityKey{Kind: types.KindPlatform, Name: "GPL1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "SEQ"}, got.TableColumns)
	assert.True(t, got.HasDataTable)
	require.NotNil(t, got.TableError)
	assert.Equal(t, msg, *got.TableError)

	_, err = storage.GetEntity(ctx, doc.ID, types.EntityKey{Kind: types.KindPlatform, Name: "GPL2"})
	assert.ErrorIs(t, err, ErrNotFound)

	// Same key twice in one document is rejected
	dup := &Entity{DocumentID: doc.ID, Kind: types.KindSample, Name: "GSM2", Position: 3}
	assert.Error(t, storage.InsertEntity(ctx, dup))
}

func TestAttributes_RoundTripSlots(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GPL1")
	e := createEntity(t, storage, doc.ID, types.KindPlatform, "GPL1", 0)

	attrs := []Attribute{
		{Name: "Platform_title", Slot: "scalar", Values: []string{"Array"}},
		{Name: "Platform_organism", Slot: "unset", Values: []string{}},
		{Name: "Platform_contributor", Slot: "list", Values: []string{}},
		{Name: "Platform_description", Slot: "list", Values: []string{"line one", "", "line three"}},
		{Name: "Platform_blank", Slot: "list", Values: []string{""}},
	}
	require.NoError(t, storage.InsertAttributes(ctx, e.ID, attrs))

	got, err := storage.ListAttributes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got, len(attrs))
	for i := range attrs {
		assert.Equal(t, attrs[i].Name, got[i].Name)
		assert.Equal(t, attrs[i].Slot, got[i].Slot)
		assert.Equal(t, attrs[i].Values, got[i].Values, attrs[i].Name)
		assert.Equal(t, i, got[i].Position)
	}
}

func TestSearchAttributes(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE1")
	e := createEntity(t, storage, doc.ID, types.KindSeries, "GSE1", 0)
	require.NoError(t, storage.InsertAttributes(ctx, e.ID, []Attribute{
		{Name: "Series_title", Slot: "scalar", Values: []string{"Breast cancer expression profiling"}},
		{Name: "Series_summary", Slot: "list", Values: []string{"Liver samples", "treated with drug"}},
		{Name: "Series_platform_id", Slot: "list", Values: []string{"GPL-570"}},
	}))

	matches, err := storage.SearchAttributes(ctx, "cancer", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "GSE1", matches[0].Accession)
	assert.Equal(t, types.EntityKey{Kind: types.KindSeries, Name: "GSE1"}, matches[0].Entity)
	assert.Equal(t, "Series_title", matches[0].Attribute)
	assert.Equal(t, []string{"Breast cancer expression profiling"}, matches[0].Values)

	// Matches inside list values and punctuation are literal
	matches, err = storage.SearchAttributes(ctx, "drug", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, []string{"Liver samples", "treated with drug"}, matches[0].Values)

	matches, err = storage.SearchAttributes(ctx, "GPL-570", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = storage.SearchAttributes(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestColumnDescriptions(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE1")
	e := createEntity(t, storage, doc.ID, types.KindSample, "GSM1", 0)
	require.NoError(t, storage.InsertColumnDescriptions(ctx, e.ID, []ColumnDescription{
		{Column: "ID_REF", Description: "probe id"},
		{Column: "VALUE", Description: "normalized signal"},
	}))

	cols, err := storage.ListColumnDescriptions(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "ID_REF", cols[0].Column)
	assert.Equal(t, "normalized signal", cols[1].Description)
	assert.Equal(t, 1, cols[1].Position)
}

func TestTableRows(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GSE1")
	e := &Entity{DocumentID: doc.ID, Kind: types.KindSample, Name: "GSM1", HasDataTable: true, TableColumns: []string{"ID_REF", "VALUE"}, RowCount: 3}
	require.NoError(t, storage.InsertEntity(ctx, e))

	rows := [][]string{{"p1", "10.5"}, {"p2", ""}, {"p3", "tab\tinside"}}
	require.NoError(t, storage.InsertTableRows(ctx, e.ID, rows))

	all, err := storage.ListTableRows(ctx, e.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, rows, all)

	page, err := storage.ListTableRows(ctx, e.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p2", ""}}, page)

	tbl, err := storage.GetTable(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID_REF", "VALUE"}, tbl.Columns)
	assert.Equal(t, 3, tbl.NumRows())
}

func TestGetTable_NoTable(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	doc := createDocument(t, storage, "GSE1")
	e := createEntity(t, storage, doc.ID, types.KindSeries, "GSE1", 0)

	_, err := storage.GetTable(context.Background(), e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetTable(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWarnings(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc := createDocument(t, storage, "GPL1")
	key := types.EntityKey{Kind: types.KindPlatform, Name: "GPL1"}
	in := []types.Warning{
		{Entity: key, Attribute: "Platform_title", Code: types.WarnDuplicateScalar, Message: "multiple values"},
		{Entity: key, Attribute: "Platform_organism", Code: types.WarnMissingObligation, Message: "no value found"},
	}
	require.NoError(t, storage.InsertWarnings(ctx, doc.ID, in))

	out, err := storage.ListWarnings(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGetStatus(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	status, err := storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Documents)
	assert.True(t, status.LastLoadedAt.IsZero())
	assert.Equal(t, CurrentSchemaVersion, status.SchemaVersion)
	assert.Equal(t, BuildMode, status.BuildMode)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.FTSIndexBuilt)

	doc := createDocument(t, storage, "GSE1")
	createEntity(t, storage, doc.ID, types.KindSeries, "GSE1", 0)

	status, err = storage.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Documents)
	assert.Equal(t, 1, status.Entities)
	assert.False(t, status.LastLoadedAt.IsZero())
}

func TestBeginTx_CommitRollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()

	// Test commit
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	doc := &Document{Accession: "GSE1", Source: "a", LoadID: "1"}
	require.NoError(t, tx.CreateDocument(ctx, doc))
	e := &Entity{DocumentID: doc.ID, Kind: types.KindSeries, Name: "GSE1"}
	require.NoError(t, tx.InsertEntity(ctx, e))

	inTx, err := tx.ListEntities(ctx, doc.ID, "")
	require.NoError(t, err)
	assert.Len(t, inTx, 1)

	require.NoError(t, tx.Commit())

	retrieved, err := storage.GetDocument(ctx, "GSE1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)

	// Test rollback
	tx2, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.CreateDocument(ctx, &Document{Accession: "GSE2", Source: "b", LoadID: "2"}))
	_, err = tx2.BeginTx(ctx)
	assert.Error(t, err)
	require.NoError(t, tx2.Rollback())

	_, err = storage.GetDocument(ctx, "GSE2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"breast" "cancer"`, ftsQuery("breast  cancer"))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`))
	assert.Equal(t, `"GPL-570"`, ftsQuery("GPL-570"))
	assert.Equal(t, "", ftsQuery(" "))
}
