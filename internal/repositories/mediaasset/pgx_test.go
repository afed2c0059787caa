package mediaasset

import (
	"testing"
	"time"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)

func TestInsertQuery(t *testing.T) {
	query, args, err := insertQuery(domain.MediaAsset{
		PublicID: "snappy/posts/alice/p1",
		URL:      "https://img/p1",
		Kind:     domain.MediaKindPost,
		Owner:    "alice",
	}, now)
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO media_assets (public_id,url,resource_type,kind,owner,status,created_at,updated_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8) "+
			"ON CONFLICT (public_id) DO UPDATE SET url = EXCLUDED.url, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at",
		query)
	assert.Equal(t, []any{"snappy/posts/alice/p1", "https://img/p1", "image", "post", "alice", "pending", now, now}, args)
}

func TestMarkStatusQuery(t *testing.T) {
	query, args, err := markStatusQuery("snappy/avatars/bob", domain.MediaOrphaned, now)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE media_assets SET status = $1, updated_at = $2 WHERE public_id = $3", query)
	assert.Equal(t, []any{"orphaned", now, "snappy/avatars/bob"}, args)
}

func TestListByStatusQuery(t *testing.T) {
	query, args, err := listByStatusQuery(domain.MediaOrphaned, 50)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT public_id, url, resource_type, kind, owner, status, created_at, updated_at FROM media_assets "+
			"WHERE status = $1 ORDER BY updated_at ASC LIMIT 50",
		query)
	assert.Equal(t, []any{"orphaned"}, args)
}

func TestCleanupQuery(t *testing.T) {
	cutoff := now.Add(-7 * 24 * time.Hour)
	query, args, err := cleanupQuery(domain.MediaDeleted, cutoff)
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM media_assets WHERE status = $1 AND updated_at < $2", query)
	assert.Equal(t, []any{"deleted", cutoff}, args)
}
