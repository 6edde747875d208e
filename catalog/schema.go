// Package catalog holds the schema and table-directory types shared by the
// heap file manager, the SQL statement parsers, and the join executors.
// Nothing in this package performs page I/O.
package catalog

import "fmt"

// AttrType is one of the three scalar types the tuple codec understands.
type AttrType int

const (
	INT AttrType = iota
	CHAR
	VARCHAR
)

func (t AttrType) String() string {
	switch t {
	case INT:
		return "INT"
	case CHAR:
		return "CHAR"
	case VARCHAR:
		return "VARCHAR"
	default:
		return fmt.Sprintf("AttrType(%d)", int(t))
	}
}

// Attribute describes one column of a TableSchema.
type Attribute struct {
	Name    string
	Type    AttrType
	MaxSize int // byte width for INT/CHAR, capacity bound for VARCHAR
	NotNull bool
	Unique  bool
}

// SameKind reports whether two attributes would be treated as the same
// column for the purposes of a natural join: same name, same type. MaxSize,
// NotNull and Unique are not part of the join key.
func (a Attribute) SameKind(b Attribute) bool {
	return a.Name == b.Name && a.Type == b.Type
}

// TableSchema is an ordered list of Attributes with a name.
type TableSchema struct {
	Name       string
	Attributes []Attribute
	IsTemp     bool
}

// NewTableSchema builds a TableSchema from name and attrs in column order.
func NewTableSchema(name string, attrs []Attribute, isTemp bool) *TableSchema {
	return &TableSchema{Name: name, Attributes: attrs, IsTemp: isTemp}
}

// ColumnIndex returns the ordinal of the column named name, or -1 if absent.
func (s *TableSchema) ColumnIndex(name string) int {
	for i, a := range s.Attributes {
		if a.Name == name {
			return i
		}
	}
	return -1
}
