package entity

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/schema"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

const (
	msgDuplicateScalar   = "multiple values for an attribute that should have only one"
	msgMissingObligation = "no value found"
	msgEmptyFullList     = "no values found"
)

// HeaderField is one "#COLUMN = description" line
type HeaderField struct {
	Column      string
	Description string
}

// Container accumulates one entity's attributes according to its schema.
// It is mutated only by the parse pass that owns its registry.
type Container struct {
	key    types.EntityKey
	schema schema.Schema

	slots map[string]Value
	order []string

	header      map[string]int
	headerOrder []HeaderField

	rows         []string
	table        *types.Table
	tableErr     error
	hasDataTable bool
	finalized    bool

	warnings []types.Warning
	logger   *zap.SugaredLogger
}

// NewContainer creates an empty container for key, shaped by s.
// Declared scalars start unset, declared lists start empty.
func NewContainer(key types.EntityKey, s schema.Schema, log *zap.SugaredLogger) *Container {
	if log == nil {
		log = logger.ComponentLogger("entity")
	}
	c := &Container{
		key:    key,
		schema: s,
		slots:  make(map[string]Value),
		header: make(map[string]int),
		logger: log.With(logger.FieldEntity, key.String()),
	}
	for _, name := range s.Declared() {
		if s.Cardinality(name).IsScalar() {
			c.declare(name, UnsetValue())
		} else {
			c.declare(name, ListValue())
		}
	}
	return c
}

func (c *Container) declare(name string, v Value) {
	if _, ok := c.slots[name]; !ok {
		c.order = append(c.order, name)
	}
	c.slots[name] = v
}

// Key returns the entity key
func (c *Container) Key() types.EntityKey { return c.key }

// Schema returns the schema the container was built with
func (c *Container) Schema() schema.Schema { return c.schema }

// Set records a value for name.
//
// Unknown names become lists on first write. Lists append. An unset scalar
// takes the value. A second value for a declared scalar is discarded and a
// duplicate_scalar warning is recorded.
func (c *Container) Set(name, value string) {
	v, ok := c.slots[name]
	if !ok {
		v = ListValue()
		c.order = append(c.order, name)
	}

	switch v.kind {
	case SlotList:
		v.list = append(v.list, value)
	case SlotUnset:
		v = ScalarValue(value)
	case SlotScalar:
		if c.schema.Cardinality(name).IsScalar() {
			c.warn(name, types.WarnDuplicateScalar, msgDuplicateScalar)
		}
		return
	}
	c.slots[name] = v
}

// Get returns the slot for name
func (c *Container) Get(name string) (Value, error) {
	v, ok := c.slots[name]
	if !ok {
		return Value{}, errors.Wrapf(types.ErrAttributeNotFound, "%s: %s", c.key, name)
	}
	return v, nil
}

// Names returns attribute names: declared names in schema order, then
// undeclared names in arrival order.
func (c *Container) Names() []string {
	return append([]string{}, c.order...)
}

// Validate checks obligations and full lists and returns any new warnings.
// Flags and empty lists are optional and never checked.
func (c *Container) Validate() []types.Warning {
	if c.schema.IsEmpty() {
		return nil
	}
	start := len(c.warnings)
	for _, name := range c.schema.Obligations {
		if c.slots[name].IsUnset() {
			c.warn(name, types.WarnMissingObligation, msgMissingObligation)
		}
	}
	for _, name := range c.schema.FullLists {
		if values, ok := c.slots[name].List(); ok && len(values) == 0 {
			c.warn(name, types.WarnEmptyFullList, msgEmptyFullList)
		}
	}
	return append([]types.Warning{}, c.warnings[start:]...)
}

// Warnings returns every warning recorded so far
func (c *Container) Warnings() []types.Warning {
	return append([]types.Warning{}, c.warnings...)
}

func (c *Container) warn(attribute string, code types.WarningCode, msg string) {
	c.warnings = append(c.warnings, types.Warning{
		Entity:    c.key,
		Attribute: attribute,
		Code:      code,
		Message:   msg,
	})
	c.logger.Warnw(msg, logger.FieldAttribute, attribute, "code", string(code))
}

// SetHeaderDescription records a "#COLUMN = description" line.
// A repeated column keeps its position and takes the latest description.
func (c *Container) SetHeaderDescription(column, description string) {
	if i, ok := c.header[column]; ok {
		c.headerOrder[i].Description = description
		return
	}
	c.header[column] = len(c.headerOrder)
	c.headerOrder = append(c.headerOrder, HeaderField{Column: column, Description: description})
}

// HeaderFields returns the column descriptions in arrival order
func (c *Container) HeaderFields() []HeaderField {
	return append([]HeaderField{}, c.headerOrder...)
}

// Header returns the column descriptions keyed by column name
func (c *Container) Header() map[string]string {
	out := make(map[string]string, len(c.headerOrder))
	for _, f := range c.headerOrder {
		out[f.Column] = f.Description
	}
	return out
}

// AppendRow buffers one raw table line verbatim
func (c *Container) AppendRow(line string) {
	c.rows = append(c.rows, line)
}

// Rows returns the raw table buffer
func (c *Container) Rows() []string {
	return append([]string{}, c.rows...)
}

// MarkTableBegin records that a table-begin marker was seen
func (c *Container) MarkTableBegin() {
	c.hasDataTable = true
}

// HasDataTable reports whether the entity carries a table.
// It is corrected to false when finalization finds an empty buffer.
func (c *Container) HasDataTable() bool { return c.hasDataTable }

// NeedsFinalization reports whether a closing line should build the table now
func (c *Container) NeedsFinalization() bool {
	return !c.finalized && (len(c.rows) > 0 || c.hasDataTable)
}

// CompleteTable records the result of table finalization.
// A nil table with a nil error is the defined "no table" outcome.
func (c *Container) CompleteTable(t *types.Table, err error) {
	c.finalized = true
	c.table = t
	c.tableErr = err
	if t == nil && err == nil {
		c.hasDataTable = false
	}
}

// Table returns the parsed data table, if any
func (c *Container) Table() (*types.Table, bool) {
	return c.table, c.table != nil
}

// TableErr returns the error that prevented the table from being built
func (c *Container) TableErr() error { return c.tableErr }
