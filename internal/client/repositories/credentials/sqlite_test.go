package credentials

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, username string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM credentials WHERE username=?`, username).Scan(&n))
	return n
}

func TestInsertGetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id, err := r.Insert(ctx, models.Credential{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &models.Credential{ID: id, Username: "alice", Password: "pw1"}, got)

	byName, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, got, byName)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, id), ErrNotFound)
}

func TestInsert_Validation(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Insert(ctx, models.Credential{Username: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Insert(ctx, models.Credential{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, models.Credential{Username: "bob", Password: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdate(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	a, err := r.Insert(ctx, models.Credential{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, models.Credential{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, r.Update(ctx, models.Credential{ID: a, Username: "alice2", Password: "new"}))
	got, err := r.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "new", got.Password)

	assert.ErrorIs(t, r.Update(ctx, models.Credential{ID: a, Username: "bob", Password: "x"}), ErrDuplicate)
	assert.ErrorIs(t, r.Update(ctx, models.Credential{ID: 999, Username: "zed", Password: "x"}), ErrNotFound)
}

func TestUpsert_NeverDuplicatesUsername(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	id1, created, err := r.Upsert(ctx, "alice", "first")
	require.NoError(t, err)
	assert.True(t, created)

	id2, created, err := r.Upsert(ctx, "alice", "second")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	assert.Equal(t, 1, countRows(t, db, "alice"))
	got, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Password)

	_, _, err = r.Upsert(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWithTx_RollsBack(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txr := r.WithTx(tx)
		if _, err := txr.Insert(ctx, models.Credential{Username: "carol", Password: "pw"}); err != nil {
			return err
		}
		_, err := txr.Insert(ctx, models.Credential{Username: "carol", Password: "pw"})
		return err
	})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 0, countRows(t, db, "carol"))
}

func TestGetAll_Ordered(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for _, u := range []string{"carol", "alice", "bob"} {
		_, err := r.Insert(ctx, models.Credential{Username: u, Password: "pw"})
		require.NoError(t, err)
	}
	all, err = r.GetAll(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.Username)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no value from stream")
	}
	var zero T
	return zero
}

func TestWatch_EmitsSnapshots(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := r.Watch(ctx)
	require.NoError(t, err)
	assert.Empty(t, recv(t, stream))

	id, err := r.Insert(ctx, models.Credential{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	list := recv(t, stream)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)

	require.NoError(t, r.Delete(ctx, id))
	assert.Empty(t, recv(t, stream))

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-stream:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatchOne_FollowsRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := r.Insert(ctx, models.Credential{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	stream, err := r.WatchOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pw", recv(t, stream).Password)

	_, _, err = r.Upsert(ctx, "alice", "rotated")
	require.NoError(t, err)
	assert.Equal(t, "rotated", recv(t, stream).Password)

	require.NoError(t, r.Delete(ctx, id))
	assert.Nil(t, recv(t, stream))
}
