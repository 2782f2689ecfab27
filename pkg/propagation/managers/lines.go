// Package managers contains the per-format manifest updaters: Cargo
// (Cargo.toml/Cargo.lock), Lazarus (.lpi), and Visual Basic 6 (.vbp/.vbg).
package managers

import "strings"

// splitLines splits text into lines, tolerating both LF and CR-LF endings and
// ignoring a single trailing newline. It mirrors the per-line iteration the
// rewrite state machines are defined over: the machines re-join lines with
// their own terminator, which normalizes the newline style of the output.
func splitLines(contents string) []string {
	if contents == "" {
		return nil
	}
	contents = strings.TrimSuffix(contents, "\n")
	lines := strings.Split(contents, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
