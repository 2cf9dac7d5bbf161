// Package parser turns SOFT text into an entity model.
//
// Every line is classified by its first character:
//
//	^KIND = NAME          begins a new entity and makes it current
//	!label = value        sets an attribute on the current entity
//	!label                bare label; *_table_begin opens a data table,
//	                      any other bare label closes the table block
//	#COLUMN = description describes a data-table column
//	anything else         raw table row, buffered verbatim
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/GSE1_family.soft")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, e := range result.Registry.Samples() {
//	    if t, ok := e.Container.Table(); ok {
//	        fmt.Printf("%s: %d rows\n", e.Key.Name, t.NumRows())
//	    }
//	}
//
// # Error Handling
//
// Schema violations (duplicate scalars, missing obligations, empty required
// lists) are warnings: they are logged, collected in Result.Warnings, and the
// parse continues.
//
// Content before the first entity-indicator line and redeclared entities are
// structural errors; Parse stops and returns an error wrapping
// types.ErrNoEntity or types.ErrDuplicateEntity.
//
// A malformed table invalidates only its own entity. The error is kept on the
// container (Container.TableErr) and in Result.TableErrors.
//
// An empty table block is not an error: the entity simply has no table and
// HasDataTable reports false.
package parser
