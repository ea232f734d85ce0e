package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Tadej Pogačar":        "tadej-pogacar",
		"Jonas Vingegaard":     "jonas-vingegaard",
		"Søren Kragh":          "soren-kragh",
		"Mathieu van der Poel": "mathieu-van-der-poel",
		"Biniam  Girmay ":      "biniam-girmay",
		"Tim Wellens-Jr.":      "tim-wellens-jr",
		"Michał Kwiatkowski":   "michal-kwiatkowski",
		"Egan Bernal Gómez":    "egan-bernal-gomez",
		"Ben O'Connor":         "ben-o-connor",
		"Jan Løvås":            "jan-lovas",
		"":                     "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeAppliesOverrides(t *testing.T) {
	t.Parallel()

	n := New(map[string]string{"Primož Roglič": "primoz-roglic-official"})

	require.Equal(t, "dan-martin", n.Normalize("Daniel", "Martin"))
	require.Equal(t, "soren-kragh-andersen", n.Normalize("Søren", "Kragh"))
	require.Equal(t, "primoz-roglic-official", n.Normalize("Primož", "Roglič"))
	require.Equal(t, "wout-van-aert", n.Normalize(" Wout ", "van Aert"))
}

func TestNormalizeIsStable(t *testing.T) {
	t.Parallel()

	n := New(nil)
	require.Equal(t, n.Normalize("Remco", "Evenepoel"), n.Normalize("Remco", "Evenepoel"))
}
