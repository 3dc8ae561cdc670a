package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// Coprocess talks to an external key-value process over a line-oriented
// text protocol: "SGET Pi\n" returns "u1,v1;u2,v2;...\n" (empty line if the
// partition has no edges yet), and "SADD Pi 'u1,v1;...'\n" returns "OK\n".
// Edges and vertices are served from the dataset loaded at construction,
// same as the reference implementation — only partition state round-trips
// through the subprocess, since that is the durable piece a crash drill
// needs to recover from.
type Coprocess struct {
	mu sync.Mutex

	edges map[domain.Edge]struct{}
	verts map[int64]domain.Vertex
	k     int

	cursor    []domain.Edge
	cursorPos int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewCoprocess starts command (e.g. "./kv") and loads path eagerly for the
// edge/vertex side of the contract.
func NewCoprocess(ctx context.Context, path string, k int, command string, args ...string) (*Coprocess, error) {
	edges, verts, err := LoadEdges(path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("coprocess: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("coprocess: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("coprocess: start %s: %w", command, err)
	}

	c := &Coprocess{
		edges:  edges,
		verts:  verts,
		k:      k,
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}
	c.cursor = make([]domain.Edge, 0, len(edges))
	for e := range edges {
		c.cursor = append(c.cursor, e)
	}
	return c, nil
}

// Close terminates the subprocess.
func (c *Coprocess) Close() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

func (c *Coprocess) roundTrip(req string) (string, error) {
	if _, err := io.WriteString(c.stdin, req); err != nil {
		return "", ports.NewBackendError("coprocess", "write", "", err)
	}
	line, err := c.stdout.ReadString('\n')
	if err != nil {
		return "", ports.NewBackendError("coprocess", "read", "", err)
	}
	return line, nil
}

// GetEdges implements ports.Backend.
func (c *Coprocess) GetEdges(ctx context.Context) (map[domain.Edge]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.Edge]struct{}, len(c.edges))
	for e := range c.edges {
		out[e] = struct{}{}
	}
	return out, nil
}

// EdgesSize implements ports.Backend.
func (c *Coprocess) EdgesSize(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.edges), nil
}

// GetVerts implements ports.Backend.
func (c *Coprocess) GetVerts(ctx context.Context) (map[int64]domain.Vertex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int64]domain.Vertex, len(c.verts))
	for id, v := range c.verts {
		out[id] = v.Clone()
	}
	return out, nil
}

// GetVertsSubset implements ports.Backend.
func (c *Coprocess) GetVertsSubset(ctx context.Context, ids map[int64]struct{}) (map[int64]domain.Vertex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int64]domain.Vertex, len(ids))
	for id := range ids {
		v, ok := c.verts[id]
		if !ok {
			v = domain.NewVertex()
			c.verts[id] = v
		}
		out[id] = v.Clone()
	}
	return out, nil
}

// GetParts implements ports.Backend by issuing one SGET per partition.
func (c *Coprocess) GetParts(ctx context.Context) ([]domain.Partition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := make([]domain.Partition, c.k)
	for i := range parts {
		parts[i] = domain.NewPartition()
		line, err := c.roundTrip(fmt.Sprintf("SGET P%d\n", i))
		if err != nil {
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			continue
		}
		for _, pair := range strings.Split(line, ";") {
			uv := strings.Split(pair, ",")
			if len(uv) != 2 {
				return nil, &ports.ProtocolError{Expected: "u,v", Got: pair}
			}
			u, err1 := strconv.ParseInt(uv[0], 10, 64)
			v, err2 := strconv.ParseInt(uv[1], 10, 64)
			if err1 != nil || err2 != nil {
				return nil, &ports.ProtocolError{Expected: "u,v", Got: pair}
			}
			parts[i].AddEdge(domain.NewEdge(u, v))
		}
	}
	return parts, nil
}

// PutVerts implements ports.Backend. The reference Nuft backend keeps its
// own in-memory vertex map for this, so this mirrors Local's merge
// semantics rather than round-tripping through the subprocess.
func (c *Coprocess) PutVerts(ctx context.Context, delta map[int64]domain.Vertex) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, dv := range delta {
		cur, ok := c.verts[id]
		if !ok {
			cur = domain.NewVertex()
		}
		cur.Deg += dv.DeltaDeg
		for p := range dv.Parts {
			cur.AddPart(p)
		}
		c.verts[id] = cur
	}
	return nil
}

// PutPart implements ports.Backend by issuing a single SADD for partition
// i's edge delta.
func (c *Coprocess) PutPart(ctx context.Context, i int, delta domain.Partition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putPartLocked(i, delta)
}

func (c *Coprocess) putPartLocked(i int, delta domain.Partition) error {
	if len(delta.Edges) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	first := true
	for e := range delta.Edges {
		if !first {
			sb.WriteByte(';')
		}
		first = false
		fmt.Fprintf(&sb, "%d,%d", e.U, e.V)
	}
	sb.WriteByte('\'')

	req := fmt.Sprintf("SADD P%d %s\n", i, sb.String())
	line, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != "OK" {
		return &ports.ProtocolError{Expected: "OK", Got: line}
	}
	return nil
}

// PutParts implements ports.Backend.
func (c *Coprocess) PutParts(ctx context.Context, delta []domain.Partition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range delta {
		if err := c.putPartLocked(i, d); err != nil {
			return err
		}
	}
	return nil
}

// GetEdge implements ports.Backend.
func (c *Coprocess) GetEdge(ctx context.Context) (domain.Edge, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursorPos >= len(c.cursor) {
		return domain.Edge{}, false, nil
	}
	e := c.cursor[c.cursorPos]
	c.cursorPos++
	return e, true, nil
}

// Crash is a no-op: Coprocess is the durable side of a crash drill, it is
// never itself the thing that crashes.
func (c *Coprocess) Crash(ctx context.Context) error { return nil }

// Recover is a no-op for the same reason.
func (c *Coprocess) Recover(ctx context.Context, snapshot []domain.Partition) error { return nil }

// IsCrashed always reports false.
func (c *Coprocess) IsCrashed() bool { return false }

// CheckCrashed always returns immediately.
func (c *Coprocess) CheckCrashed(ctx context.Context) error { return nil }

var _ ports.Backend = (*Coprocess)(nil)
