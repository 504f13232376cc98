package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	ok := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n-- +goose Down\n"
	write("20260101000000_first.sql", ok)
	write("20260101000000_second.sql", ok)
	write("20260102000000_backwards.sql", "-- +goose Down\n-- +goose Up\n")
	write("20260103000000_unbalanced.sql", "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")
	write("menu.sql", ok)
	write("README.md", "not a migration")

	err := ValidateDir(dir)
	require.Error(t, err)
	problems := multierr.Errors(err)
	assert.Len(t, problems, 4)
	joined := err.Error()
	for _, want := range []string{"already used by", "Down block precedes Up", "1 StatementBegin but 0 StatementEnd", "menu.sql"} {
		assert.Contains(t, joined, want)
	}
}
