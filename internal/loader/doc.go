// Package loader ingests GEO accessions into storage.
//
// Each accession goes through fetch -> parse -> validate -> store. Loads run
// concurrently on an errgroup bounded by a semaphore; each accession gets its
// own Parser and registry and is written in a single transaction, so a
// failed accession leaves nothing behind. Per-accession failures are
// collected in Statistics.ErrorMessages and never abort the run.
//
// # Basic Usage
//
//	fetcher := source.NewFetcher("", cacheDir)
//	l := loader.New(store, fetcher, loader.WithMetrics(m))
//	stats, err := l.LoadAccessions(ctx, []string{"GSE2553", "GPL570"}, &loader.Config{
//	    Workers: 4,
//	})
//
// Already stored accessions are skipped unless Config.Force is set, in which
// case the cached download is evicted and the document replaced.
//
// A local file can be loaded without a fetcher:
//
//	doc, result, err := l.LoadFile(ctx, "GSE100", "GSE100_family.soft")
//
// Every run carries a load id (a UUID) that is stored on each document and
// attached to every log line of the run.
package loader
