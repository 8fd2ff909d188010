// Package labchart reads LabChart text exports into traces.
//
// Export formats vary between LabChart versions and settings: the column
// delimiter may be a tab, comma, or spaces, and the file may open with up
// to ten header lines of channel metadata. The loader tries each header
// offset and delimiter combination until one parses cleanly into a valid
// two-column recording.
package labchart

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-myograph/myo/trace"
)

// maxHeaderLines is the largest header block seen in LabChart exports.
const maxHeaderLines = 10

type delimiter int

const (
	delimTab delimiter = iota
	delimComma
	delimWhitespace
)

// Load reads one LabChart text export. The first column is time in
// seconds, the second force in mN; extra columns are ignored. The
// returned trace satisfies trace.Validate.
func Load(path string) (trace.Trace, error) {
	lines, err := readLines(path)
	if err != nil {
		return trace.Trace{}, err
	}

	for skip := 0; skip <= maxHeaderLines && skip < len(lines); skip++ {
		for _, delim := range []delimiter{delimTab, delimComma, delimWhitespace} {
			tr, ok := parse(lines[skip:], delim)
			if !ok {
				continue
			}

			if tr.Validate() == nil {
				return tr, nil
			}
		}
	}

	return trace.Trace{}, fmt.Errorf("labchart: could not parse %s", path)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("labchart: %w", err)
	}
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("labchart: %w", err)
	}

	return lines, nil
}

// parse attempts to read every line as a data row with the given
// delimiter. A single unparseable row rejects the whole attempt, so a
// header line mistaken for data fails fast rather than corrupting the
// trace.
func parse(lines []string, delim delimiter) (trace.Trace, bool) {
	if len(lines) == 0 {
		return trace.Trace{}, false
	}

	times := make([]float64, 0, len(lines))
	forces := make([]float64, 0, len(lines))

	for _, line := range lines {
		fields := split(line, delim)
		if len(fields) < 2 {
			return trace.Trace{}, false
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return trace.Trace{}, false
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return trace.Trace{}, false
		}

		times = append(times, t)
		forces = append(forces, f)
	}

	return trace.Trace{Time: times, Force: forces}, true
}

func split(line string, delim delimiter) []string {
	switch delim {
	case delimTab:
		return strings.Split(line, "\t")
	case delimComma:
		return strings.Split(line, ",")
	default:
		return strings.Fields(line)
	}
}
