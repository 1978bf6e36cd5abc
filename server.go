package matidb

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strings"
)

// handleConnection serves query on conn until the client disconnects or a
// read error occurs, flushing the database once the connection ends
// (spec.md §4.3 checkpoint iii, §6 "flushes ... on client disconnect").
func handleConnection(ex *Executor, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	log.Printf("[%v] Connected", remote)

	reader := bufio.NewReader(conn)
	for {
		line, err := ReadRequest(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("[%v] Connection closed", remote)
			} else {
				log.Printf("[%v] Failed to read request: %v", remote, err)
			}
			break
		}

		sql := strings.TrimSpace(line)
		if sql == "" {
			continue
		}

		log.Printf("[%v] Running %q", remote, sql)

		result, err := runStatement(ex, sql)
		if err != nil {
			if writeErr := WriteError(conn, err); writeErr != nil {
				log.Printf("[%v] Failed to send error response: %v", remote, writeErr)
				break
			}
			continue
		}

		if err := WriteOK(conn, result); err != nil {
			log.Printf("[%v] Failed to send response: %v", remote, err)
			break
		}
	}

	if err := ex.db.Flush(); err != nil {
		log.Printf("[%v] Failed to flush on disconnect: %v", remote, err)
	}
}

// runStatement dispatches one request line: either a special REPL word
// (spec.md §6: tables, flush) or a SQL statement.
func runStatement(ex *Executor, sql string) (*Result, error) {
	switch strings.ToLower(sql) {
	case "tables":
		return tablesResult(ex), nil
	case "flush":
		return nil, ex.FlushDatabase()
	}

	stmt, err := ParseStatement(sql)
	if err != nil {
		return nil, err
	}
	return ex.Execute(stmt)
}

func tablesResult(ex *Executor) *Result {
	schema := NewSchema([]Column{{Name: "table", Type: ColText}, {Name: "columns", Type: ColText}})
	rows := make([]Row, 0, len(ex.ListTables()))
	for _, t := range ex.ListTables() {
		rows = append(rows, Row{TextValue(t.Name), TextValue(strings.Join(t.Schema.ColumnNames(), ", "))})
	}
	return &Result{Schema: schema, Rows: rows}
}

// RunServer accepts and fully serves one connection at a time over addr —
// the core is single-threaded cooperative (spec.md §5), so there is no
// per-connection goroutine fan-out, unlike a typical concurrent TCP server.
func RunServer(ctx context.Context, ex *Executor, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Println("Listening on", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		handleConnection(ex, conn)
	}
}
