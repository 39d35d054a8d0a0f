// Command litescan is the out-of-core CLI glue: it forwards `.dbinfo`,
// `.tables`, and raw SQL strings to the schema catalog and query executor.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/lindeneg/litescan"
)

var cli struct {
	File    string `arg:"" help:"Path to the SQLite database file."`
	Command string `arg:"" help:"One of .dbinfo, .tables, or a SELECT statement."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("litescan"),
		kong.Description("Read-only query engine over the SQLite file format."),
	)

	db, err := litescan.Open(cli.File, litescan.WithDroppedRowLogging(log.Default()))
	if err != nil {
		fail(err)
	}
	defer db.Close()

	switch {
	case cli.Command == ".dbinfo":
		runDBInfo(db)
	case cli.Command == ".tables":
		runTables(db)
	default:
		runSelect(db, cli.Command)
	}
}

func runDBInfo(db *litescan.Database) {
	fmt.Printf("database page size: %d\n", db.Header().PageSize)
	fmt.Printf("number of tables: %d\n", len(db.Schema().Tables()))
	if info, err := os.Stat(cli.File); err == nil {
		fmt.Printf("database file size: %s\n", humanize.Bytes(uint64(info.Size())))
	}
}

func runTables(db *litescan.Database) {
	entries := db.Schema().Tables()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	fmt.Println(strings.Join(names, " "))
}

func runSelect(db *litescan.Database, sql string) {
	ex := litescan.NewExecutor(db)
	if err := ex.Execute(sql, os.Stdout); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
