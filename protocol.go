package matidb

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOK writes a successful response: "OK\n", then one content line per
// row (tab-separated values in schema order), then "END\n" (spec.md §6).
func WriteOK(w io.Writer, result *Result) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("OK\n"); err != nil {
		return err
	}

	if result != nil {
		for _, row := range result.Rows {
			if err := writeRowLine(bw, row); err != nil {
				return err
			}
		}
	}

	if _, err := bw.WriteString("END\n"); err != nil {
		return err
	}

	return bw.Flush()
}

func writeRowLine(bw *bufio.Writer, row Row) error {
	for i, v := range row {
		if i > 0 {
			if err := bw.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(v.String()); err != nil {
			return err
		}
	}
	return bw.WriteByte('\n')
}

// WriteError writes a failed response: "ERROR\n", one message line (with
// any embedded newlines flattened so framing can't break), then "END\n".
func WriteError(w io.Writer, cause error) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("ERROR\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(bw, flattenLine(cause.Error())); err != nil {
		return err
	}

	if _, err := bw.WriteString("END\n"); err != nil {
		return err
	}

	return bw.Flush()
}

func flattenLine(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			out = append(out, ' ')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// ReadRequest reads one line-terminated SQL statement from r (spec.md §6).
func ReadRequest(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

// ReadResponse reads one full response (OK/ERROR through END) and reports
// whether it was a success, the message (error text, if any), and the
// content lines (rows, if any) — used by the TCP client.
type ParsedResponse struct {
	OK      bool
	Message string
	Lines   []string
}

func ReadResponse(r *bufio.Reader) (*ParsedResponse, error) {
	status, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}

	resp := &ParsedResponse{}
	switch trimNewline(status) {
	case "OK":
		resp.OK = true
	case "ERROR":
		resp.OK = false
	default:
		return nil, fmt.Errorf("unexpected status line %q", trimNewline(status))
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		trimmed := trimNewline(line)
		if trimmed == "END" {
			break
		}
		if resp.OK {
			resp.Lines = append(resp.Lines, trimmed)
		} else if resp.Message == "" {
			resp.Message = trimmed
		}
	}

	return resp, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
