package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/entity"
	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/schema"
	"github.com/dshills/geosoft-mcp/internal/table"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

// maxLineSize bounds a single SOFT line; platform annotation rows can be long
const maxLineSize = 16 * 1024 * 1024

// State is the classifier state
type State int

const (
	StateNoEntity State = iota // no entity-indicator line seen yet
	StateInEntity              // a current entity exists
)

// Stats counts what one parse consumed
type Stats struct {
	Lines          int
	EntityLines    int
	AttributeLines int
	HeaderLines    int
	RowLines       int
	Entities       int
	Tables         int
	// UnclosedTables counts table blocks closed by a label other than
	// *_table_end.
	UnclosedTables int
}

// Result is the entity model produced by one parse
type Result struct {
	Registry *entity.Registry
	// Warnings holds every schema violation, in the order they were found
	Warnings []types.Warning
	// TableErrors holds malformed-table failures; each affects one entity only
	TableErrors []error
	Stats       Stats
}

// Parser consumes SOFT lines one at a time and builds an entity registry.
// A Parser is single-use and not safe for concurrent use.
type Parser struct {
	registry  *entity.Registry
	state     State
	lineNo    int
	stats     Stats
	tableErrs []error
	result    *Result
	logger    *zap.SugaredLogger
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for entity echo and warnings
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a new Parser instance
func New(opts ...Option) *Parser {
	p := &Parser{logger: logger.ComponentLogger("parser")}
	for _, opt := range opts {
		opt(p)
	}
	p.registry = entity.NewRegistry(p.logger)
	return p
}

// State returns the current classifier state
func (p *Parser) State() State { return p.state }

// ParseFile parses a decompressed SOFT file
func (p *Parser) ParseFile(filePath string) (*Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	return p.Parse(f)
}

// Parse feeds every line of r to the classifier, then validates the model.
// Structural errors abort the parse. If r ends early the partial model is
// returned as is; an open table block is not finalized.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for sc.Scan() {
		if err := p.Feed(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read failed after line %d", p.lineNo)
	}
	return p.Finish(), nil
}

// Feed classifies and applies one line
func (p *Parser) Feed(raw string) error {
	p.lineNo++
	p.stats.Lines++

	line := Tokenize(raw)
	switch line.Kind {
	case LineEntity:
		p.stats.EntityLines++
		return p.entityLine(line)
	case LineAttribute:
		p.stats.AttributeLines++
		return p.attributeLine(line)
	case LineHeader:
		p.stats.HeaderLines++
		return p.headerLine(line)
	case LineRow:
		p.stats.RowLines++
		return p.rowLine(line)
	default:
		return errors.AssertionFailedf("unhandled line kind %d", line.Kind)
	}
}

// Finish validates every entity once and returns the model.
// Calling Finish again returns the same result.
func (p *Parser) Finish() *Result {
	if p.result != nil {
		return p.result
	}

	p.registry.ValidateAll()
	p.stats.Entities = p.registry.Len()
	p.result = &Result{
		Registry:    p.registry,
		Warnings:    p.registry.Warnings(),
		TableErrors: append([]error{}, p.tableErrs...),
		Stats:       p.stats,
	}
	return p.result
}

func (p *Parser) entityLine(line Line) error {
	p.logger.Infow(line.Raw, logger.FieldLine, p.lineNo)

	name := line.Value
	if !line.HasValue {
		name = ""
	}
	if _, err := p.registry.Begin(types.EntityKind(line.Label), name); err != nil {
		return errors.Wrapf(err, "line %d", p.lineNo)
	}
	p.state = StateInEntity
	return nil
}

func (p *Parser) attributeLine(line Line) error {
	c, err := p.current()
	if err != nil {
		return err
	}

	if line.HasValue {
		c.Set(line.Label, line.Value)
		return nil
	}

	c.Set(line.Label, "")
	if schema.IsTableBegin(line.Label) {
		c.MarkTableBegin()
		return nil
	}
	if c.NeedsFinalization() && !schema.IsTableEnd(line.Label) {
		p.stats.UnclosedTables++
		p.logger.Debugw("table block closed without end marker",
			logger.FieldEntity, c.Key().String(),
			logger.FieldAttribute, line.Label,
			logger.FieldLine, p.lineNo)
	}
	p.finalizeTable(c)
	return nil
}

func (p *Parser) headerLine(line Line) error {
	c, err := p.current()
	if err != nil {
		return err
	}
	c.SetHeaderDescription(line.Label, line.Value)
	return nil
}

func (p *Parser) rowLine(line Line) error {
	if p.state == StateNoEntity && strings.TrimSpace(line.Raw) == "" {
		return nil
	}
	c, err := p.current()
	if err != nil {
		return err
	}
	c.AppendRow(line.Raw)
	return nil
}

func (p *Parser) current() (*entity.Container, error) {
	if p.state == StateNoEntity {
		return nil, errors.Wrapf(types.ErrNoEntity, "line %d", p.lineNo)
	}
	return p.registry.Current()
}

// finalizeTable builds the current entity's table from its row buffer.
// It runs at most once per entity.
func (p *Parser) finalizeTable(c *entity.Container) {
	if !c.NeedsFinalization() {
		return
	}

	t, err := table.Parse(c.Rows())
	switch {
	case err == nil:
		c.CompleteTable(t, nil)
		p.stats.Tables++
	case errors.Is(err, table.ErrEmpty):
		c.CompleteTable(nil, nil)
	default:
		err = errors.Wrapf(err, "%s (line %d)", c.Key(), p.lineNo)
		c.CompleteTable(nil, err)
		p.tableErrs = append(p.tableErrs, err)
		p.logger.Errorw("data table rejected",
			logger.FieldEntity, c.Key().String(),
			logger.FieldLine, p.lineNo,
			logger.FieldError, err.Error())
	}
}
