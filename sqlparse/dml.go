package sqlparse

import (
	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	driver "github.com/pingcap/tidb/types/parser_driver"
	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/catalog"
)

// ParseInsert parses an `INSERT INTO <name> VALUES (v1, ..., vn);`
// statement and returns the target table name and the row values in the
// table's column order, as Go values ready for tuple.Encode: int32 for INT
// columns, string for CHAR/VARCHAR columns. String values may be quoted or
// bare; a bare value parses as an identifier and is read back as its name.
func ParseInsert(sql string, schema *catalog.TableSchema) (string, []interface{}, error) {
	stmtNodes, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return "", nil, errors.Wrap(err, "sqlparse: parsing INSERT")
	}
	if len(stmtNodes) != 1 {
		return "", nil, errors.Errorf("sqlparse: expected one statement, got %d", len(stmtNodes))
	}

	insertStmt, ok := stmtNodes[0].(*ast.InsertStmt)
	if !ok {
		return "", nil, errors.Errorf("sqlparse: expected INSERT, got %T", stmtNodes[0])
	}

	tableName, err := insertTableName(insertStmt)
	if err != nil {
		return "", nil, err
	}

	if len(insertStmt.Lists) != 1 {
		return "", nil, errors.Errorf("sqlparse: expected exactly one VALUES row, got %d", len(insertStmt.Lists))
	}
	row := insertStmt.Lists[0]
	if len(row) != len(schema.Attributes) {
		return "", nil, errors.Errorf("sqlparse: table %q has %d columns, got %d values", schema.Name, len(schema.Attributes), len(row))
	}

	values := make([]interface{}, len(row))
	for i, expr := range row {
		v, err := literalValue(expr, schema.Attributes[i])
		if err != nil {
			return "", nil, err
		}
		values[i] = v
	}

	return tableName, values, nil
}

// PeekInsertTableName parses just enough of sql to recover its target table
// name, without knowing the table's schema yet. CreateTupleFromSQLStatement
// uses this to look up the schema it then passes to ParseInsert.
func PeekInsertTableName(sql string) (string, error) {
	stmtNodes, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return "", errors.Wrap(err, "sqlparse: parsing INSERT")
	}
	if len(stmtNodes) != 1 {
		return "", errors.Errorf("sqlparse: expected one statement, got %d", len(stmtNodes))
	}
	insertStmt, ok := stmtNodes[0].(*ast.InsertStmt)
	if !ok {
		return "", errors.Errorf("sqlparse: expected INSERT, got %T", stmtNodes[0])
	}
	return insertTableName(insertStmt)
}

func insertTableName(stmt *ast.InsertStmt) (string, error) {
	if stmt.Table == nil || stmt.Table.TableRefs == nil {
		return "", errors.New("sqlparse: INSERT statement has no target table")
	}
	src, ok := stmt.Table.TableRefs.Left.(*ast.TableSource)
	if !ok {
		return "", errors.New("sqlparse: unexpected INSERT target shape")
	}
	tn, ok := src.Source.(*ast.TableName)
	if !ok {
		return "", errors.New("sqlparse: unexpected INSERT target shape")
	}
	return tn.Name.String(), nil
}

// literalValue reads one VALUES-list element. Quoted strings and numbers
// parse as *driver.ValueExpr; a bare, unquoted string value parses as a
// column-name-shaped identifier instead, since it is not a SQL keyword the
// grammar recognizes as anything else.
func literalValue(expr ast.ExprNode, attr catalog.Attribute) (interface{}, error) {
	if val, ok := expr.(*driver.ValueExpr); ok {
		switch attr.Type {
		case catalog.INT:
			return int32(val.GetInt64()), nil
		case catalog.CHAR, catalog.VARCHAR:
			return val.GetString(), nil
		}
	}

	if col, ok := expr.(*ast.ColumnNameExpr); ok {
		if attr.Type == catalog.CHAR || attr.Type == catalog.VARCHAR {
			return col.Name.Name.String(), nil
		}
	}

	return nil, errors.Errorf("sqlparse: cannot read a %v literal from %T for attribute %q", attr.Type, expr, attr.Name)
}
