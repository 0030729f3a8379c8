package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/OCAP2/pointmap/internal/dispatcher"
	"github.com/OCAP2/pointmap/internal/mapview"
	"github.com/OCAP2/pointmap/pkg/core"
)

// runConsole reads one command per line and prints OK or ERR with the result.
// Blank lines and lines starting with # are skipped; "quit" stops early.
func runConsole(in io.Reader, out io.Writer, d *dispatcher.Dispatcher) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit":
			return nil
		case "help":
			cmds := d.Commands()
			sort.Strings(cmds)
			fmt.Fprintln(out, strings.Join(cmds, "\n"))
			continue
		}

		e, err := dispatcher.Parse(line)
		if err != nil {
			fmt.Fprintf(out, "ERR %v\n", err)
			continue
		}
		if !d.HasHandler(e.Command) {
			fmt.Fprintf(out, "ERR unknown command %s (type help)\n", e.Command)
			continue
		}
		result, err := d.Dispatch(e)
		if err != nil {
			fmt.Fprintf(out, "ERR %v\n", err)
			continue
		}
		fmt.Fprintf(out, "OK %s\n", formatResult(result))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

func formatResult(result any) string {
	switch r := result.(type) {
	case nil:
		return ""
	case string:
		return r
	case core.Point:
		return fmt.Sprintf("%s id=%s at %.6f,%.6f", mapview.MarkerText(r), r.ID, r.Location.Lat, r.Location.Lng)
	default:
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprintf("%v", r)
		}
		return string(data)
	}
}
