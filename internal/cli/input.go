package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// stdinMarker tells --values to read the series from standard input.
const stdinMarker = "-"

func errUnknownOutput(format string) error {
	return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputTable, outputJSON)
}

// parseValues parses a comma, whitespace or newline separated list of numbers.
func parseValues(raw string) ([]float64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no values given")
	}

	values := make([]float64, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q) is not a number", i+1, field)
		}
		values = append(values, v)
	}
	return values, nil
}

// readValues resolves --values, reading stdin when it is "-".
func readValues(raw string, stdin io.Reader) ([]float64, error) {
	if raw != stdinMarker {
		return parseValues(raw)
	}

	var b strings.Builder
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read values from stdin: %w", err)
	}
	return parseValues(b.String())
}
