// Package entity holds the per-entity attribute containers and the ordered
// registry that owns them.
//
// A Container stores each attribute in a tagged slot (see Value). The slot
// kind is fixed when the container is created: declared obligations and flags
// start Unset and take a single scalar; declared lists and every undeclared
// name hold lists. Schema violations are recorded as types.Warning values and
// logged; they never fail a call.
//
//	reg := entity.NewRegistry(nil)
//	c, _ := reg.Begin(types.KindPlatform, "GPL570")
//	c.Set("Platform_title", "HG-U133_Plus_2")
//	c.Set("Platform_title", "again")   // warning, first value kept
//	warnings := reg.ValidateAll()
package entity
