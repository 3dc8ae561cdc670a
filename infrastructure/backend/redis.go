package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// Redis is the Remote KV State Backend. It keeps no process-local copy of
// edges, vertices, or partitions — every read and write is a round trip to
// the server, using the same key layout as the reference implementation:
//
//	E          set of "u,v" canonical edge strings
//	V          set of vertex ids
//	P<i>       set of "u,v" strings assigned to partition i
//	VP<id>     set of partition indices touching vertex id
//	VD<id>     string-encoded degree counter for vertex id
type Redis struct {
	client *redis.Client
	k      int

	scanMu     sync.Mutex
	scanCursor uint64
	scanCache  []string
	scanDone   bool
}

// NewRedis connects to addr/db, flushes it, and seeds E/V from path.
func NewRedis(ctx context.Context, addr string, db int, path string, k int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.FlushAll(ctx).Err(); err != nil {
		return nil, ports.NewBackendError("redis", "FLUSHALL", "", err)
	}

	edges, _, err := LoadEdges(path)
	if err != nil {
		return nil, err
	}

	pipe := client.Pipeline()
	for e := range edges {
		pipe.SAdd(ctx, "E", e.CommaString())
		pipe.SAdd(ctx, "V", e.U)
		pipe.SAdd(ctx, "V", e.V)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, ports.NewBackendError("redis", "seed", "", err)
	}

	return &Redis{client: client, k: k}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func partKey(i int) string { return fmt.Sprintf("P%d", i) }
func vpKey(id int64) string { return fmt.Sprintf("VP%d", id) }
func vdKey(id int64) string { return fmt.Sprintf("VD%d", id) }

func parseEdgeMember(s string) (domain.Edge, error) {
	uv := strings.Split(s, ",")
	if len(uv) != 2 {
		return domain.Edge{}, &ports.ProtocolError{Expected: "u,v", Got: s}
	}
	u, err1 := strconv.ParseInt(uv[0], 10, 64)
	v, err2 := strconv.ParseInt(uv[1], 10, 64)
	if err1 != nil || err2 != nil {
		return domain.Edge{}, &ports.ProtocolError{Expected: "u,v", Got: s}
	}
	return domain.NewEdge(u, v), nil
}

// GetEdges implements ports.Backend.
func (r *Redis) GetEdges(ctx context.Context) (map[domain.Edge]struct{}, error) {
	members, err := r.client.SMembers(ctx, "E").Result()
	if err != nil {
		return nil, ports.NewBackendError("redis", "SMEMBERS", "E", err)
	}
	out := make(map[domain.Edge]struct{}, len(members))
	for _, m := range members {
		e, err := parseEdgeMember(m)
		if err != nil {
			return nil, err
		}
		out[e] = struct{}{}
	}
	return out, nil
}

// EdgesSize implements ports.Backend.
func (r *Redis) EdgesSize(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, "E").Result()
	if err != nil {
		return 0, ports.NewBackendError("redis", "SCARD", "E", err)
	}
	return int(n), nil
}

func (r *Redis) fetchVertex(ctx context.Context, id int64) (domain.Vertex, error) {
	v := domain.NewVertex()
	pmembers, err := r.client.SMembers(ctx, vpKey(id)).Result()
	if err != nil {
		return v, ports.NewBackendError("redis", "SMEMBERS", vpKey(id), err)
	}
	for _, pm := range pmembers {
		p, err := strconv.Atoi(pm)
		if err != nil {
			return v, &ports.ProtocolError{Expected: "int", Got: pm}
		}
		v.AddPart(p)
	}

	deg, err := r.client.Get(ctx, vdKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			v.Deg = 0
		} else {
			return v, ports.NewBackendError("redis", "GET", vdKey(id), err)
		}
	} else {
		n, err := strconv.ParseInt(deg, 10, 64)
		if err != nil {
			return v, &ports.ProtocolError{Expected: "int64", Got: deg}
		}
		v.Deg = n
	}
	return v, nil
}

// GetVerts implements ports.Backend.
func (r *Redis) GetVerts(ctx context.Context) (map[int64]domain.Vertex, error) {
	ids, err := r.client.SMembers(ctx, "V").Result()
	if err != nil {
		return nil, ports.NewBackendError("redis", "SMEMBERS", "V", err)
	}
	idSet := make(map[int64]struct{}, len(ids))
	for _, s := range ids {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &ports.ProtocolError{Expected: "int64", Got: s}
		}
		idSet[id] = struct{}{}
	}
	return r.GetVertsSubset(ctx, idSet)
}

// GetVertsSubset implements ports.Backend.
func (r *Redis) GetVertsSubset(ctx context.Context, ids map[int64]struct{}) (map[int64]domain.Vertex, error) {
	out := make(map[int64]domain.Vertex, len(ids))
	for id := range ids {
		v, err := r.fetchVertex(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// GetParts implements ports.Backend.
func (r *Redis) GetParts(ctx context.Context) ([]domain.Partition, error) {
	parts := make([]domain.Partition, r.k)
	for i := 0; i < r.k; i++ {
		parts[i] = domain.NewPartition()
		members, err := r.client.SMembers(ctx, partKey(i)).Result()
		if err != nil {
			return nil, ports.NewBackendError("redis", "SMEMBERS", partKey(i), err)
		}
		for _, m := range members {
			e, err := parseEdgeMember(m)
			if err != nil {
				return nil, err
			}
			parts[i].AddEdge(e)
		}
	}
	return parts, nil
}

// PutVerts implements ports.Backend. DeltaDeg is applied via INCRBY (so
// concurrent publishers never lose an increment); Parts is always unioned.
func (r *Redis) PutVerts(ctx context.Context, delta map[int64]domain.Vertex) error {
	pipe := r.client.Pipeline()
	for id, dv := range delta {
		if dv.DeltaDeg != 0 {
			pipe.IncrBy(ctx, vdKey(id), dv.DeltaDeg)
		}
		for p := range dv.Parts {
			pipe.SAdd(ctx, vpKey(id), p)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.NewBackendError("redis", "PutVerts", "", err)
	}
	return nil
}

// PutPart implements ports.Backend.
func (r *Redis) PutPart(ctx context.Context, i int, delta domain.Partition) error {
	if len(delta.Edges) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for e := range delta.Edges {
		pipe.SAdd(ctx, partKey(i), e.CommaString())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.NewBackendError("redis", "PutPart", partKey(i), err)
	}
	return nil
}

// PutParts implements ports.Backend.
func (r *Redis) PutParts(ctx context.Context, delta []domain.Partition) error {
	for i, d := range delta {
		if err := r.PutPart(ctx, i, d); err != nil {
			return err
		}
	}
	return nil
}

// GetEdge implements ports.Backend using an SSCAN cursor over E, matching
// the reference HiRedisScanner: it buffers a page at a time and reports
// exhaustion once the scan cursor has come back to 0 and the last buffered
// page is used up.
func (r *Redis) GetEdge(ctx context.Context) (domain.Edge, bool, error) {
	r.scanMu.Lock()
	defer r.scanMu.Unlock()

	for len(r.scanCache) == 0 {
		if r.scanDone {
			return domain.Edge{}, false, nil
		}
		keys, cursor, err := r.client.SScan(ctx, "E", r.scanCursor, "", 0).Result()
		if err != nil {
			return domain.Edge{}, false, ports.NewBackendError("redis", "SSCAN", "E", err)
		}
		r.scanCursor = cursor
		r.scanCache = append(r.scanCache, keys...)
		if cursor == 0 {
			r.scanDone = true
		}
	}

	m := r.scanCache[len(r.scanCache)-1]
	r.scanCache = r.scanCache[:len(r.scanCache)-1]
	e, err := parseEdgeMember(m)
	if err != nil {
		return domain.Edge{}, false, err
	}
	return e, true, nil
}

// Crash implements ports.Backend by clearing vertex/partition keys while
// leaving E and V (the durable dataset) untouched.
func (r *Redis) Crash(ctx context.Context) error {
	for i := 0; i < r.k; i++ {
		if err := r.client.Del(ctx, partKey(i)).Err(); err != nil {
			return ports.NewBackendError("redis", "DEL", partKey(i), err)
		}
	}
	ids, err := r.client.SMembers(ctx, "V").Result()
	if err != nil {
		return ports.NewBackendError("redis", "SMEMBERS", "V", err)
	}
	for _, s := range ids {
		id, _ := strconv.ParseInt(s, 10, 64)
		r.client.Del(ctx, vpKey(id), vdKey(id))
	}
	return nil
}

// Recover implements ports.Backend by replaying snapshot into partition
// and vertex keys.
func (r *Redis) Recover(ctx context.Context, snapshot []domain.Partition) error {
	pipe := r.client.Pipeline()
	for i, p := range snapshot {
		for e := range p.Edges {
			pipe.SAdd(ctx, partKey(i), e.CommaString())
			pipe.IncrBy(ctx, vdKey(e.U), 1)
			pipe.SAdd(ctx, vpKey(e.U), i)
			pipe.IncrBy(ctx, vdKey(e.V), 1)
			pipe.SAdd(ctx, vpKey(e.V), i)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.NewBackendError("redis", "Recover", "", err)
	}
	return nil
}

// IsCrashed always reports false: Redis has no in-process crash
// simulation of its own, only Local does.
func (r *Redis) IsCrashed() bool { return false }

// CheckCrashed always returns immediately.
func (r *Redis) CheckCrashed(ctx context.Context) error { return nil }

var _ ports.Backend = (*Redis)(nil)
