package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToISO2MapsTableEntries(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"eng": "en",
		"deu": "de",
		"fra": "fr",
		"spa": "es",
		"jpn": "ja",
		"zho": "zh",
		"nld": "nl",
	}
	for code3, want := range cases {
		require.Equal(t, want, ToISO2(code3), code3)
	}
}

func TestToISO2IsIdentityForUnknownCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "xyz", ToISO2("xyz"))
	require.Equal(t, "qqq", ToISO2("qqq"))
}

func TestEveryTableEntryRoundTrips(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, byISO3)
	for code3, code2 := range byISO3 {
		require.Len(t, code3, 3)
		require.Len(t, code2, 2)
		require.Equal(t, code2, Resolve(code3, "en"))
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	require.Equal(t, "de", Resolve("", "de"))
	require.Equal(t, "en", Resolve("  ", "EN"))
	require.Equal(t, "fr", Resolve("FRA", "en"))
	require.Equal(t, "pt", Resolve("pt", "en"))
	require.Equal(t, "xyz", Resolve("xyz", "en"))
	require.Equal(t, "pt-br", Resolve("pt-BR", "en"))
}

func TestKnown(t *testing.T) {
	t.Parallel()

	require.True(t, Known("eng"))
	require.False(t, Known("xyz"))
}
