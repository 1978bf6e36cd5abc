package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	"github.com/mlopezgez/matidb"
)

const defaultAddr = "127.0.0.1:5432"

func main() {
	os.Exit(run())
}

func run() int {
	addr := defaultAddr
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to server:", err)
		return 1
	}
	defer conn.Close()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: filepath.Join(cwd, ".matidb_client_history"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize readline:", err)
		return 1
	}
	defer rl.Close()

	reader := bufio.NewReader(conn)

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			return 0
		}

		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to send query:", err)
			return 1
		}

		resp, err := matidb.ReadResponse(reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to read response:", err)
			return 1
		}

		if !resp.OK {
			fmt.Println("Error:", resp.Message)
			continue
		}

		printLines(resp.Lines)
	}

	return 0
}

// printLines renders tab-separated content lines with tablewriter. The
// protocol carries no column names (spec.md §6), so rows are shown
// unlabeled, same shape as the teacher's formatTable minus the header.
func printLines(lines []string) {
	if len(lines) == 0 {
		return
	}

	w := tablewriter.NewWriter(os.Stdout)
	for _, line := range lines {
		w.Append(strings.Split(line, "\t"))
	}
	w.Render()
}
