// Package sqlparse turns the two statement forms the core accepts —
// CREATE TABLE and INSERT INTO ... VALUES — into catalog and tuple types,
// using a real SQL grammar instead of a hand-rolled tokenizer.
package sqlparse

import (
	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/mysql"
	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/catalog"
)

// ParseCreateTable parses a `CREATE TABLE <name> (<col> <type> [NOT NULL]
// [UNIQUE], ...);` statement into a TableSchema, attributes in the order
// they appear in the statement.
func ParseCreateTable(sql string) (*catalog.TableSchema, error) {
	stmtNodes, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return nil, errors.Wrap(err, "sqlparse: parsing CREATE TABLE")
	}
	if len(stmtNodes) != 1 {
		return nil, errors.Errorf("sqlparse: expected one statement, got %d", len(stmtNodes))
	}

	createStmt, ok := stmtNodes[0].(*ast.CreateTableStmt)
	if !ok {
		return nil, errors.Errorf("sqlparse: expected CREATE TABLE, got %T", stmtNodes[0])
	}

	attrs := make([]catalog.Attribute, 0, len(createStmt.Cols))
	for _, col := range createStmt.Cols {
		attr, err := attributeFromColumnDef(col)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	return catalog.NewTableSchema(createStmt.Table.Name.String(), attrs, false), nil
}

func attributeFromColumnDef(col *ast.ColumnDef) (catalog.Attribute, error) {
	attr := catalog.Attribute{Name: col.Name.Name.String()}

	switch col.Tp.Tp {
	case mysql.TypeLong, mysql.TypeLonglong, mysql.TypeInt24, mysql.TypeShort, mysql.TypeTiny:
		attr.Type = catalog.INT
		attr.MaxSize = 4
	case mysql.TypeString:
		attr.Type = catalog.CHAR
		attr.MaxSize = col.Tp.Flen
	case mysql.TypeVarchar, mysql.TypeVarString:
		attr.Type = catalog.VARCHAR
		attr.MaxSize = col.Tp.Flen
	default:
		return catalog.Attribute{}, errors.Errorf("sqlparse: unsupported column type %v for %q", col.Tp.Tp, attr.Name)
	}

	for _, opt := range col.Options {
		switch opt.Tp {
		case ast.ColumnOptionNotNull:
			attr.NotNull = true
		case ast.ColumnOptionUniqKey:
			attr.Unique = true
		}
	}

	return attr, nil
}
