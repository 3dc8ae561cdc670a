package backend_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/streamcut/infrastructure/backend"
	"github.com/ahrav/streamcut/internal/domain"
)

// fakeKVScript writes a minimal shell implementation of the coprocess line
// protocol: it echoes back whatever was last SADD-ed for a partition on a
// matching SGET, and "OK" for every SADD. One shared slot is enough since
// these tests only ever exercise a single partition at a time.
func fakeKVScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake coprocess fixture requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "kv.sh")
	script := `#!/bin/sh
slot=""
while IFS= read -r line; do
  case "$line" in
    SGET*) printf '%s\n' "$slot" ;;
    SADD*)
      slot=$(printf '%s' "$line" | sed "s/^SADD P[0-9]* '//" | sed "s/'$//")
      printf 'OK\n'
      ;;
  esac
done
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCoprocessPutPartThenGetPartsRoundTrips(t *testing.T) {
	script := fakeKVScript(t)
	datasetPath := writeDataset(t, "1 2\n3 4\n")
	ctx := context.Background()

	c, err := backend.NewCoprocess(ctx, datasetPath, 1, "/bin/sh", script)
	require.NoError(t, err)
	defer c.Close()

	delta := domain.NewPartition()
	delta.AddEdge(domain.NewEdge(1, 2))
	delta.AddEdge(domain.NewEdge(3, 4))
	require.NoError(t, c.PutPart(ctx, 0, delta))

	parts, err := c.GetParts(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.True(t, parts[0].Contains(domain.NewEdge(1, 2)))
	assert.True(t, parts[0].Contains(domain.NewEdge(3, 4)))
}

func TestCoprocessEdgesAndVertsServedFromDataset(t *testing.T) {
	script := fakeKVScript(t)
	datasetPath := writeDataset(t, "1 2\n2 3\n")
	ctx := context.Background()

	c, err := backend.NewCoprocess(ctx, datasetPath, 1, "/bin/sh", script)
	require.NoError(t, err)
	defer c.Close()

	edges, err := c.GetEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	n, err := c.EdgesSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
