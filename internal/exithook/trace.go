package exithook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// WriteTrace prints the call frames recorded in err, outermost first, with
// the source line of each frame when the file can be read. The stack
// captured closest to the failure is used, so wrappers added on the way
// up (hints, context) do not hide it.
func WriteTrace(w io.Writer, err error) {
	st := FailureStack(err)
	if st == nil || len(st.Frames) == 0 {
		return
	}

	sources := make(map[string][]string)
	_, _ = fmt.Fprintf(w, "Call stack (%v):\n", err)
	for _, f := range st.Frames {
		path := f.AbsPath
		if path == "" {
			path = f.Filename
		}
		_, _ = fmt.Fprintf(w, "  %s:%d %s\n", path, f.Lineno, f.Function)

		if line, ok := sourceLine(sources, path, f.Lineno); ok {
			_, _ = fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

// FailureStack returns the innermost stack trace recorded in err's chain,
// or nil if no layer carries one.
func FailureStack(err error) *errors.ReportableStackTrace {
	var st *errors.ReportableStackTrace
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if s := errors.GetReportableStackTrace(e); s != nil {
			st = s
		}
	}
	return st
}

func sourceLine(cache map[string][]string, path string, lineno int) (string, bool) {
	lines, seen := cache[path]
	if !seen {
		lines = readLines(path)
		cache[path] = lines
	}
	if lineno < 1 || lineno > len(lines) {
		return "", false
	}
	return strings.TrimSpace(lines[lineno-1]), true
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
