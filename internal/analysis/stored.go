package analysis

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/dshills/geosoft-mcp/internal/storage"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

// LoadStoredSamples reads every SAMPLE table of a stored document into a
// StaticSource. Samples without a stored table are kept with a nil Table so
// the Ranker reports them as skipped.
func LoadStoredSamples(ctx context.Context, store storage.Storage, documentID int64) (StaticSource, error) {
	entities, err := store.ListEntities(ctx, documentID, types.KindSample)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list samples")
	}

	src := make(StaticSource, 0, len(entities))
	for _, e := range entities {
		tbl, err := store.GetTable(ctx, e.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrapf(err, "failed to read table of %s", e.Key())
		}
		src = append(src, SampleTable{Name: e.Name, Table: tbl})
	}
	return src, nil
}
