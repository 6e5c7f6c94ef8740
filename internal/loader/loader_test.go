package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSONBareArray(t *testing.T) {
	l := New(getTestLogger())
	path := writeTempFile(t, `[{"id": "a", "name": "Shinei Office"}, {"id": "b"}]`)

	listings, dropped, err := l.LoadJSON(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, listings, 2)
	assert.Equal(t, "Shinei Office", listings[0].Name())
}

func TestLoadJSONWrappedObject(t *testing.T) {
	l := New(getTestLogger())
	path := writeTempFile(t, `{"listings": [{"id": "a"}]}`)

	listings, dropped, err := l.LoadJSON(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, listings, 1)
	assert.Equal(t, "a", listings[0].ID())
}

func TestLoadJSONDropsNonObjectEntries(t *testing.T) {
	l := New(getTestLogger())
	path := writeTempFile(t, `[{"id": "a"}, "stray string", 42, null, {"id": "b"}]`)

	listings, dropped, err := l.LoadJSON(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)
	assert.Len(t, listings, 2)
}

func TestLoadJSONMissingFile(t *testing.T) {
	l := New(getTestLogger())

	listings, dropped, err := l.LoadJSON(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, 0, dropped)
}

func TestLoadJSONInvalidJSON(t *testing.T) {
	l := New(getTestLogger())
	path := writeTempFile(t, `{"listings": [`)

	listings, _, err := l.LoadJSON(context.Background(), path)
	assert.Error(t, err)
	assert.Empty(t, listings)
}

func TestLoadJSONWrongShape(t *testing.T) {
	l := New(getTestLogger())

	tests := []struct {
		name    string
		content string
	}{
		{"object without listings key", `{"records": []}`},
		{"scalar", `"not a collection"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.content)
			listings, _, err := l.LoadJSON(context.Background(), path)
			assert.Error(t, err)
			assert.Empty(t, listings)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	l := New(getTestLogger())
	path := filepath.Join(t.TempDir(), "listings.csv")
	content := "id,name,eco_focus_tags,coordinates\n" +
		"a,Shinei Office,\"[\"\"solar\"\",\"\"wifi\"\"]\",\"{\"\"latitude\"\":13.7563,\"\"longitude\"\":100.5018}\"\n" +
		"b,Hub53,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	listings, err := l.LoadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "a", first.ID())
	assert.Equal(t, []any{"solar", "wifi"}, first["eco_focus_tags"])
	coords, ok := first.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 13.7563, coords.Latitude)

	second := listings[1]
	assert.Equal(t, "b", second.ID())
	_, present := second["eco_focus_tags"]
	assert.False(t, present)
}

func TestLoadCSVMissingFile(t *testing.T) {
	l := New(getTestLogger())

	listings, err := l.LoadCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
	assert.Empty(t, listings)
}

func TestSanitize(t *testing.T) {
	listings, dropped := Sanitize([]any{
		map[string]any{"id": "a"},
		"nope",
		map[string]any{"id": "b"},
	})

	assert.Equal(t, 1, dropped)
	assert.Equal(t, []models.Listing{{"id": "a"}, {"id": "b"}}, listings)
}
