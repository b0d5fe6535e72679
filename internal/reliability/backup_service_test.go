package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/database"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = raw
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, raw := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(raw))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	infos, _ := m.List(context.Background(), "")
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys
}

func testDatabases(t *testing.T) map[string]*database.DB {
	t.Helper()
	ledger, cleanupLedger := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanupLedger)
	history, cleanupHistory := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanupHistory)
	return map[string]*database.DB{"ledger": ledger, "history": history}
}

func readArchive(t *testing.T, raw []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = body
	}
	return files
}

func TestBackupService_CreateAndUpload(t *testing.T) {
	store := newMemoryStore()
	svc := NewBackupService(store, testDatabases(t), "advisor/", t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC) }

	key, err := svc.CreateAndUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "advisor/advisor-backup-2024-03-01-023000.tar.gz", key)

	files := readArchive(t, store.objects[key])
	require.Contains(t, files, "ledger.db")
	require.Contains(t, files, "history.db")
	require.Contains(t, files, metadataFile)

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFile], &metadata))
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "history", metadata.Databases[0].Name)
	assert.Equal(t, "ledger", metadata.Databases[1].Name)
	for _, db := range metadata.Databases {
		assert.True(t, strings.HasPrefix(db.Checksum, "sha256:"))
		assert.Equal(t, int64(len(files[db.Filename])), db.SizeBytes)
	}
}

func TestBackupService_UploadFailure(t *testing.T) {
	store := newMemoryStore()
	store.uploadErr = errors.New("access denied")
	svc := NewBackupService(store, testDatabases(t), "", t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))

	_, err := svc.CreateAndUpload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestBackupService_ListAndRotate(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, day := range []int{1, 2, 3, 20, 29, 30} {
		stamp := time.Date(2024, 3, day, 1, 0, 0, 0, time.UTC).Format(archiveTimestamp)
		store.objects["p/"+archivePrefix+stamp+archiveSuffix] = []byte("x")
	}
	store.objects["p/"+archivePrefix+"garbage"+archiveSuffix] = []byte("x")
	store.objects["p/notes.txt"] = []byte("x")

	svc := NewBackupService(store, nil, "p/", t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 6)
	assert.Equal(t, 30, backups[0].Timestamp.Day())
	assert.Equal(t, int64(23), backups[0].AgeHours)

	deleted, err := svc.RotateOldBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	backups, err = svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, 20, backups[2].Timestamp.Day())

	deleted, err = svc.RotateOldBackups(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	deleted, err = svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestMaintenanceJob(t *testing.T) {
	original := diskUsage
	t.Cleanup(func() { diskUsage = original })

	job := NewMaintenanceJob(testDatabases(t), t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "database_maintenance", job.Name())

	diskUsage = func(string) (uint64, error) { return 50 * 1024 * 1024 * 1024, nil }
	assert.NoError(t, job.Run())

	diskUsage = func(string) (uint64, error) { return 1024, nil }
	assert.Error(t, job.Run())

	diskUsage = func(string) (uint64, error) { return 0, errors.New("no such device") }
	assert.Error(t, job.Run())
}

type fakePruner struct {
	cutoffs []time.Time
	err     error
}

func (f *fakePruner) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func TestMaintenanceJob_PrunesOldBars(t *testing.T) {
	original := diskUsage
	t.Cleanup(func() { diskUsage = original })
	diskUsage = func(string) (uint64, error) { return 50 * 1024 * 1024 * 1024, nil }

	now := time.Date(2025, 6, 1, 2, 30, 0, 0, time.UTC)
	job := NewMaintenanceJob(testDatabases(t), t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	job.now = func() time.Time { return now }

	pruner := &fakePruner{}
	job.SetRetention(pruner, 0)
	require.NoError(t, job.Run())
	assert.Empty(t, pruner.cutoffs)

	job.SetRetention(pruner, 365)
	require.NoError(t, job.Run())
	assert.Equal(t, []time.Time{now.AddDate(0, 0, -365)}, pruner.cutoffs)

	// a failed prune does not fail the job
	pruner.err = errors.New("database is locked")
	assert.NoError(t, job.Run())
	assert.Len(t, pruner.cutoffs, 2)
}

func TestBackupJob(t *testing.T) {
	store := newMemoryStore()
	svc := NewBackupService(store, testDatabases(t), "", t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	job := NewBackupJob(svc, 30, zerolog.New(nil).Level(zerolog.Disabled))

	assert.Equal(t, "ledger_backup", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, store.keys(), 1)
}
