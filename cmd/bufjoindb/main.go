// Command bufjoindb is a small batch driver over the storage and join core:
// it loads a schema and rows from SQL text files, runs one of the three
// natural-join executors over two tables, and prints the result.
package main

import (
	"bufio"
	"flag"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/heapfilemanager"
	"github.com/hit-dbcourse/bufjoindb/join"
	"github.com/hit-dbcourse/bufjoindb/scanner"
	"github.com/hit-dbcourse/bufjoindb/sqlparse"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
)

func main() {
	var (
		ddlPath   = flag.String("ddl", "", "path to a file of CREATE TABLE statements, one per line")
		dmlPath   = flag.String("dml", "", "path to a file of INSERT statements, one per line")
		leftName  = flag.String("left", "", "left table name")
		rightName = flag.String("right", "", "right table name")
		algo      = flag.String("algo", "onepass", "join algorithm: onepass, nestedloop, or gracehash")
		numBufs   = flag.Uint("bufs", 16, "buffer pool frame count")
		m         = flag.Int("m", 5, "pin budget M passed to the join operator")
		resultOut = flag.String("out", "result.tbl", "result heap file path")
		dataDir   = flag.String("datadir", ".", "directory holding table heap files")
	)
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *leftName == "" || *rightName == "" {
		log.Fatal("both -left and -right table names are required")
	}

	cat := catalog.NewCatalog()
	bufMgr := buffer.NewBufferPoolManager(uint32(*numBufs))

	files := make(map[string]*heapfile.File)
	openFile := func(name string) (*heapfile.File, error) {
		if f, ok := files[name]; ok {
			return f, nil
		}
		f, err := heapfile.Open(heapFilePath(*dataDir, name))
		if err != nil {
			return nil, err
		}
		files[name] = f
		return f, nil
	}

	if *ddlPath != "" {
		if err := loadDDL(*ddlPath, cat, *dataDir, openFile); err != nil {
			log.WithError(err).Fatal("loading schema")
		}
	}
	if *dmlPath != "" {
		if err := loadDML(*dmlPath, cat, bufMgr, openFile); err != nil {
			log.WithError(err).Fatal("loading rows")
		}
	}

	leftID, err := cat.GetTableId(*leftName)
	if err != nil {
		log.WithError(err).Fatal("resolving left table")
	}
	rightID, err := cat.GetTableId(*rightName)
	if err != nil {
		log.WithError(err).Fatal("resolving right table")
	}
	leftSchema, _ := cat.GetTableSchema(leftID)
	rightSchema, _ := cat.GetTableSchema(rightID)

	// Reuse the handles the loaders wrote through, rather than reopening
	// the files: the pool caches pages by *heapfile.File identity, so a
	// fresh handle would miss every page the loader just wrote and see an
	// empty file on disk until a flush catches up.
	leftFile, err := openFile(*leftName)
	if err != nil {
		log.WithError(err).Fatal("opening left table file")
	}
	rightFile, err := openFile(*rightName)
	if err != nil {
		log.WithError(err).Fatal("opening right table file")
	}
	if err := bufMgr.FlushFile(leftFile); err != nil {
		log.WithError(err).Fatal("flushing left table file")
	}
	if err := bufMgr.FlushFile(rightFile); err != nil {
		log.WithError(err).Fatal("flushing right table file")
	}

	resultFile, err := heapfile.Open(*resultOut)
	if err != nil {
		log.WithError(err).Fatal("opening result file")
	}

	var executor interface {
		Execute(int, *heapfile.File) (bool, error)
		ResultSchema() *catalog.TableSchema
		PrintRunningStats(io.Writer) error
	}

	switch strings.ToLower(*algo) {
	case "onepass":
		executor = join.NewOnePassJoinOperator(leftFile, rightFile, leftSchema, rightSchema, cat, bufMgr)
	case "nestedloop":
		executor = join.NewNestedLoopJoinOperator(leftFile, rightFile, leftSchema, rightSchema, cat, bufMgr)
	case "gracehash":
		executor = join.NewGraceHashJoinOperator(leftFile, rightFile, leftSchema, rightSchema, cat, bufMgr)
	default:
		log.Fatalf("unknown join algorithm %q", *algo)
	}

	if _, err := executor.Execute(*m, resultFile); err != nil {
		log.WithError(err).Fatal("executing join")
	}

	log.Infof("join produced result table %s", resultFile.Name())
	if err := executor.PrintRunningStats(os.Stderr); err != nil {
		log.WithError(err).Fatal("printing running stats")
	}
	s := scanner.New(resultFile, executor.ResultSchema(), bufMgr)
	if err := s.Print(os.Stdout); err != nil {
		log.WithError(err).Fatal("printing result")
	}

	if err := bufMgr.Close(); err != nil {
		log.WithError(err).Fatal("closing buffer pool")
	}
}

// heapFilePath returns the path a table's heap file lives at under dataDir.
// Both openFile and the catalog registration in loadDDL must agree on this
// path, or a later lookup through the catalog resolves to a file nothing
// ever wrote through.
func heapFilePath(dataDir, name string) string {
	return dataDir + "/" + name + ".tbl"
}

func loadDDL(path string, cat *catalog.Catalog, dataDir string, openFile func(string) (*heapfile.File, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		schema, err := sqlparse.ParseCreateTable(line)
		if err != nil {
			return err
		}
		if _, err := openFile(schema.Name); err != nil {
			return err
		}
		if _, err := cat.AddTableSchema(schema, heapFilePath(dataDir, schema.Name)); err != nil {
			return err
		}
	}
	return scan.Err()
}

func loadDML(path string, cat *catalog.Catalog, bufMgr *buffer.BufferPoolManager, openFile func(string) (*heapfile.File, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		record, err := heapfilemanager.CreateTupleFromSQLStatement(line, cat)
		if err != nil {
			return err
		}
		tableName, err := sqlparse.PeekInsertTableName(line)
		if err != nil {
			return err
		}
		file, err := openFile(tableName)
		if err != nil {
			return err
		}
		if _, err := heapfilemanager.InsertTuple(record, file, bufMgr); err != nil {
			return err
		}
	}
	return scan.Err()
}
