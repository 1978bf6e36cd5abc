package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	"github.com/mlopezgez/matidb"
)

const (
	defaultAddr = "127.0.0.1:5432"
	defaultFile = "mati.db"
)

func main() {
	os.Exit(run())
}

func run() int {
	server := false
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--server" {
		server = true
		args = args[1:]
	}

	addr := defaultAddr
	dbFile := defaultFile
	if server {
		if len(args) > 0 {
			addr = args[0]
		}
		if len(args) > 1 {
			dbFile = args[1]
		}
	} else if len(args) > 0 {
		dbFile = args[0]
	}

	db, err := matidb.Open(dbFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open database:", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to close database:", err)
		}
	}()

	ex := matidb.NewExecutor(db)

	if server {
		return runServerMode(ex, addr)
	}
	return runInteractive(ex)
}

func runServerMode(ex *matidb.Executor, addr string) int {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	if err := matidb.RunServer(ctx, ex, addr); err != nil {
		log.Println("Server error:", err)
		return 1
	}

	log.Println("Closed successfully")
	return 0
}

func runInteractive(ex *matidb.Executor) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: filepath.Join(cwd, ".matidb_history"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize readline:", err)
		return 1
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if handled := handleSpecialWord(ex, line); handled {
			continue
		}

		stmt, err := matidb.ParseStatement(line)
		if err != nil {
			fmt.Println("Failed to parse query:", err)
			continue
		}

		result, err := ex.Execute(stmt)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}

		printResult(result)
	}

	return 0
}

// handleSpecialWord recognizes the REPL words that short-circuit the SQL
// parser: tables, flush, exit/quit (spec.md §6).
func handleSpecialWord(ex *matidb.Executor, word string) bool {
	switch strings.ToLower(word) {
	case "tables":
		printTables(ex)
		return true
	case "flush":
		if err := ex.FlushDatabase(); err != nil {
			fmt.Println("Failed to flush:", err)
		}
		return true
	case "exit", "quit":
		os.Exit(0)
		return true
	default:
		return false
	}
}

func printTables(ex *matidb.Executor) {
	for _, t := range ex.ListTables() {
		fmt.Printf("%s (%s)\n", t.Name, strings.Join(t.Schema.ColumnNames(), ", "))
	}
}

func printResult(result *matidb.Result) {
	if result == nil {
		return
	}

	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(result.Schema.ColumnNames())

	row := make([]string, 0, len(result.Schema.Columns))
	for _, r := range result.Rows {
		for _, v := range r {
			row = append(row, v.String())
		}
		w.Append(row)
		row = row[:0]
	}
	w.Render()
}
