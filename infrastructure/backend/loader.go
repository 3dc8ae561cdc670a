// Package backend implements the three State Backend variants: an
// in-memory Local store, a Redis-backed Remote store, and a Coprocess
// store that talks to an external process over a line protocol. Local
// optionally mirrors every partition write to a Coprocess instance so it has
// somewhere durable to recover from after a simulated crash.
package backend

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ahrav/streamcut/internal/domain"
)

// LoadEdges reads a dataset file of whitespace-separated "u v" integer
// pairs, one per line. Self-loops (u == v) are dropped silently, matching
// the reference loader. A line that does not parse as two integers is
// fatal: it almost certainly means the dataset file itself is corrupt.
func LoadEdges(path string) (map[domain.Edge]struct{}, map[int64]domain.Vertex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: open dataset %s: %w", path, err)
	}
	defer f.Close()

	edges := make(map[domain.Edge]struct{})
	verts := make(map[int64]domain.Vertex)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("%w: line %d: %q", domain.ErrMalformedEdge, line, text)
		}
		u, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedEdge, line, err)
		}
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedEdge, line, err)
		}
		if u == v {
			continue
		}
		edges[domain.NewEdge(u, v)] = struct{}{}
		if _, ok := verts[u]; !ok {
			verts[u] = domain.NewVertex()
		}
		if _, ok := verts[v]; !ok {
			verts[v] = domain.NewVertex()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("backend: scan dataset %s: %w", path, err)
	}
	return edges, verts, nil
}
