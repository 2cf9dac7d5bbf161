// Package storage provides SQLite-based persistence for parsed GEO SOFT documents.
//
// The storage layer manages:
//   - Documents (one per loaded accession)
//   - Entities in document order, with their data table shape
//   - Attribute slots (scalar, list or unset)
//   - Column descriptions from # header lines
//   - Data table rows
//   - Schema warnings
//   - A full-text index over attribute names and values
//
// # Database Schema
//
// Tables:
//   - documents: accession, source, load id, counts
//   - entities: kind, name, position, table columns and table error
//   - attributes: one row per slot; list values are newline-joined
//   - column_descriptions: # header lines per entity
//   - table_rows: data table rows as JSON arrays
//   - warnings: schema warnings per document
//   - attributes_fts: FTS5 index over attributes
//
// Deleting a document removes everything below it.
//
// # Transactions
//
// A document is written in one transaction:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	doc := &storage.Document{Accession: "GSE100", Source: path, LoadID: id}
//	if err := tx.CreateDocument(ctx, doc); err != nil {
//	    return err
//	}
//	entity := &storage.Entity{DocumentID: doc.ID, Kind: types.KindSample, Name: "GSM1"}
//	_ = tx.InsertEntity(ctx, entity)
//	_ = tx.InsertAttributes(ctx, entity.ID, attrs)
//
//	return tx.Commit()
//
// # Full-Text Search
//
//	matches, err := db.SearchAttributes(ctx, "breast cancer", 20)
//
// Each query term is quoted, so accessions like GPL-570 match literally.
// Results are ordered by BM25.
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler; FTS5 needs the fts5 tag
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec,fts5"
//
// Pure Go Build (purego tag, the default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
