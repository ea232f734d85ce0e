// Package csvout writes enriched riders as CSV.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Header returns the union of field names in first-appearance order.
func Header(riders []enricher.Rider) []string {
	seen := make(map[string]bool)
	var header []string
	for _, r := range riders {
		for _, name := range r.Fields.Names() {
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}
	return header
}

// Write emits a header row and one row per rider. Missing fields are empty.
func Write(w io.Writer, riders []enricher.Rider) error {
	cw := csv.NewWriter(w)
	header := Header(riders)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for i, r := range riders {
		for j, name := range header {
			v, _ := r.Fields.Get(name)
			row[j] = FormatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes riders to path, replacing any existing file.
func WriteFile(path string, riders []enricher.Rider) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return Write(f, riders)
}

// FormatValue renders a cell: true as "1", false and nil as "", lists
// joined with ", " and maps as sorted "key: value" pairs.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + FormatValue(x[k])
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
