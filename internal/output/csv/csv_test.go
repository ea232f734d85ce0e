package csvout

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

func rider(pairs ...any) enricher.Rider {
	f := enricher.NewFields()
	for i := 0; i < len(pairs); i += 2 {
		f.Set(pairs[i].(string), pairs[i+1])
	}
	return enricher.Rider{Fields: f}
}

func TestWriteUsesUnionHeader(t *testing.T) {
	t.Parallel()

	riders := []enricher.Rider{
		rider("FirstName", "Skipped", "Price", json.Number("500000")),
		rider("FirstName", "Wout", "Price", json.Number("6500000"), "Races", 2, "Paris-Roubaix", true, "Milano-Sanremo", false),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, riders))
	require.Equal(t,
		"FirstName,Price,Races,Paris-Roubaix,Milano-Sanremo\n"+
			"Skipped,500000,,,\n"+
			"Wout,6500000,2,1,\n",
		buf.String())
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "1"},
		{false, ""},
		{1503.0, "1503"},
		{12.5, "12.5"},
		{42, "42"},
		{json.Number("7"), "7"},
		{[]string{"a", "b"}, "a, b"},
		{[]any{json.Number("1"), "x"}, "1, x"},
		{map[string]any{"Value": json.Number("9"), "Type": json.Number("0")}, "Type: 0, Value: 9"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatValue(tc.in))
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteFile(path, []enricher.Rider{rider("A", "x, y")}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "A\n\"x, y\"\n", string(data))
}
