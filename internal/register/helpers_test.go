package register

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return raw
}

func loadBiblio(t *testing.T, name string) *BibliographicData {
	t.Helper()
	resp, err := Decode(readFixture(t, name))
	require.NoError(t, err)
	biblio, err := resp.BibliographicData()
	require.NoError(t, err)
	return biblio
}

// biblioFrom decodes the body of a bibliographic-data section.
func biblioFrom(t *testing.T, section string) *BibliographicData {
	t.Helper()
	raw := `{"ops:world-patent-data":{"ops:register-search":{"reg:register-documents":` +
		`{"reg:register-document":{"reg:bibliographic-data":` + section + `}}}}}`
	resp, err := Decode([]byte(raw))
	require.NoError(t, err)
	biblio, err := resp.BibliographicData()
	require.NoError(t, err)
	return biblio
}

func newTestBuilder(t *testing.T, store *PartyStore) *Builder {
	t.Helper()
	b, err := NewBuilder(
		store,
		tracenoop.NewTracerProvider().Tracer("test"),
		zap.NewNop().Sugar(),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)
	return b
}
