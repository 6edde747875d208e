package catalog

import (
	"github.com/pkg/errors"
)

// TableID identifies a table within a Catalog.
type TableID int32

// InvalidTableID is returned by lookups that find nothing.
const InvalidTableID TableID = -1

var errUnknownTable = errors.New("catalog: unknown table")

type tableEntry struct {
	id       TableID
	name     string
	filename string
	schema   *TableSchema
}

// Catalog is the in-memory table directory consulted by the SQL statement
// parsers and the join executors: table name, table id, backing filename,
// and schema, all kept consistent. It never touches disk itself; whatever
// owns a Catalog decides if and how it is persisted.
type Catalog struct {
	byID   map[TableID]*tableEntry
	byName map[string]*tableEntry
	nextID TableID
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[TableID]*tableEntry),
		byName: make(map[string]*tableEntry),
		nextID: 0,
	}
}

// AddTableSchema registers schema under filename and returns its new
// TableID. The table name must not already be registered.
func (c *Catalog) AddTableSchema(schema *TableSchema, filename string) (TableID, error) {
	if _, exists := c.byName[schema.Name]; exists {
		return InvalidTableID, errors.Errorf("catalog: table %q already exists", schema.Name)
	}

	id := c.nextID
	c.nextID++
	entry := &tableEntry{id: id, name: schema.Name, filename: filename, schema: schema}
	c.byID[id] = entry
	c.byName[schema.Name] = entry
	return id, nil
}

// GetTableId returns the TableID registered for name.
func (c *Catalog) GetTableId(name string) (TableID, error) {
	entry, ok := c.byName[name]
	if !ok {
		return InvalidTableID, errors.Wrapf(errUnknownTable, "name %q", name)
	}
	return entry.id, nil
}

// GetTableFilename returns the backing file path for id.
func (c *Catalog) GetTableFilename(id TableID) (string, error) {
	entry, ok := c.byID[id]
	if !ok {
		return "", errors.Wrapf(errUnknownTable, "id %d", id)
	}
	return entry.filename, nil
}

// GetTableSchema returns the schema registered for id.
func (c *Catalog) GetTableSchema(id TableID) (*TableSchema, error) {
	entry, ok := c.byID[id]
	if !ok {
		return nil, errors.Wrapf(errUnknownTable, "id %d", id)
	}
	return entry.schema, nil
}

// GetTableSchemaByName is a convenience wrapper used throughout the SQL
// statement handlers, which only ever have a table name in hand.
func (c *Catalog) GetTableSchemaByName(name string) (*TableSchema, error) {
	entry, ok := c.byName[name]
	if !ok {
		return nil, errors.Wrapf(errUnknownTable, "name %q", name)
	}
	return entry.schema, nil
}
