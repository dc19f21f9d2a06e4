package repo

import (
	"context"
	"fmt"
	"time"
)

// Stats summarizes one key namespace.
type Stats struct {
	Count        int64
	LastModified time.Time // zero when Count is 0
}

// Tag renders s as a weak ETag scoped by name. Any write under the
// namespace changes either the count or the newest timestamp.
func (s Stats) Tag(name string) string {
	var ts int64
	if !s.LastModified.IsZero() {
		ts = s.LastModified.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%d:%d"`, name, s.Count, ts)
}

// NamespaceStats counts the entries under prefix and finds the newest
// UpdatedAt among them.
func NamespaceStats(ctx context.Context, kv *KV, prefix Key) (Stats, error) {
	var st Stats
	q, err := kv.prefixQuery(ctx, prefix)
	if err != nil {
		return st, err
	}
	if err := q.Count(&st.Count).Error; err != nil {
		return st, fmt.Errorf("count %s: %w", prefix, err)
	}
	if st.Count == 0 {
		return st, nil
	}

	// ORDER BY + LIMIT keeps the column typed; SQLite's MAX() yields TEXT.
	var newest []time.Time
	q, _ = kv.prefixQuery(ctx, prefix)
	if err := q.Order("updated_at DESC").Limit(1).Pluck("updated_at", &newest).Error; err != nil {
		return st, fmt.Errorf("newest %s: %w", prefix, err)
	}
	if len(newest) == 1 {
		st.LastModified = newest[0].UTC()
	}
	return st, nil
}
