package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
	"github.com/sanjeevkumarraob/askyourdoc/internal/service"
	"github.com/sanjeevkumarraob/askyourdoc/internal/store"
)

type recordingUploader struct {
	mu      sync.Mutex
	inputs  []service.UploadInput
	deleted []string
}

func (r *recordingUploader) Upload(_ context.Context, in service.UploadInput) (*store.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, in)
	return &store.Document{ID: fmt.Sprintf("doc_%d", len(r.inputs))}, nil
}

func (r *recordingUploader) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingUploader) uploads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

func (r *recordingUploader) deletedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

func (r *recordingUploader) filenames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.inputs))
	for _, in := range r.inputs {
		names = append(names, in.Filename)
	}
	sort.Strings(names)
	return names
}

func (r *recordingUploader) input(name string) (service.UploadInput, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.inputs) - 1; i >= 0; i-- {
		if r.inputs[i].Filename == name {
			return r.inputs[i], true
		}
	}
	return service.UploadInput{}, false
}

func TestWatcher_InitialScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("first file contents"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "b.PDF"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.png"), []byte("png"), 0o644))

	up := &recordingUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(zap.NewNop(), up, Config{Root: root, InitialScan: true, Debounce: 10 * time.Millisecond})
	require.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		return len(up.filenames()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a.txt", "b.PDF"}, up.filenames())

	in, ok := up.input("a.txt")
	require.True(t, ok)
	assert.Equal(t, "text/plain", in.MediaType)
	assert.Equal(t, "first file contents", string(in.Data))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_NewFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("already here"), 0o644))

	up := &recordingUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(zap.NewNop(), up, Config{Root: root, Debounce: 20 * time.Millisecond})
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("dropped in later"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.md"), []byte("# nope"), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := up.input("new.txt")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	in, _ := up.input("new.txt")
	assert.Equal(t, "dropped in later", string(in.Data))
	assert.NotContains(t, up.filenames(), "old.txt")
	assert.NotContains(t, up.filenames(), "ignored.md")
}

func TestWatcher_SkipsExcludedTree(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "saved.txt"), []byte("an earlier upload"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "inbox.txt"), []byte("waiting to be read"), 0o644))

	up := &recordingUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relative and absolute spellings of the same tree must both match.
	rel, err := filepath.Rel(mustGetwd(t), uploads)
	require.NoError(t, err)
	w := NewWatcher(zap.NewNop(), up, Config{
		Root:        root,
		InitialScan: true,
		Debounce:    10 * time.Millisecond,
		Exclude:     []string{rel},
	})
	require.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		_, ok := up.input("inbox.txt")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(uploads, "fresh.txt"), []byte("saved by the service"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "later.txt"), []byte("dropped by a person"), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := up.input("later.txt")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"inbox.txt", "later.txt"}, up.filenames())
}

func TestWatcher_ChangedFileReplacesDocument(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")

	up := &recordingUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(zap.NewNop(), up, Config{Root: root, Debounce: 20 * time.Millisecond})
	require.NoError(t, w.Start(ctx))

	latest := func(want string) func() bool {
		return func() bool {
			in, ok := up.input("notes.txt")
			return ok && string(in.Data) == want && len(up.deletedIDs()) == up.uploads()-1
		}
	}

	require.NoError(t, os.WriteFile(path, []byte("first draft of the notes"), 0o644))
	assert.Eventually(t, latest("first draft of the notes"), 2*time.Second, 10*time.Millisecond)
	before := up.uploads()

	require.NoError(t, os.WriteFile(path, []byte("second draft of the notes"), 0o644))
	assert.Eventually(t, latest("second draft of the notes"), 2*time.Second, 10*time.Millisecond)

	// Each new version removes the document made from the previous one.
	deleted := up.deletedIDs()
	require.NotEmpty(t, deleted)
	assert.Equal(t, fmt.Sprintf("doc_%d", before), deleted[len(deleted)-1])
}

func TestWatcher_UnchangedContentIsNotReuploaded(t *testing.T) {
	w := NewWatcher(nil, &recordingUploader{}, Config{Root: t.TempDir()})
	up := w.uploader.(*recordingUploader)
	path := filepath.Join(w.cfg.Root, "same.txt")
	require.NoError(t, os.WriteFile(path, []byte("identical contents"), 0o644))

	w.ingest(context.Background(), path)
	w.ingest(context.Background(), path)

	assert.Equal(t, 1, up.uploads())
	assert.Empty(t, up.deletedIDs())
}

func TestWatcher_UploadDirInsideRootDoesNotLoop(t *testing.T) {
	root := t.TempDir()
	files, err := store.NewFileStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	docs := store.NewMemoryStore(store.MemoryConfig{})
	defer docs.Close()

	svc := service.NewDocuments(zap.NewNop(),
		document.NewProcessor(zap.NewNop(), document.DefaultOptions()),
		search.NewEngine(zap.NewNop(), search.DefaultConfig()),
		docs, files)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(zap.NewNop(), svc, Config{
		Root:     root,
		Debounce: 20 * time.Millisecond,
		Exclude:  []string{files.Dir()},
	})
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"),
		[]byte("The quarterly budget review happens in March."), 0o644))

	count := func() int {
		list, err := docs.List(ctx)
		if err != nil {
			return -1
		}
		return len(list)
	}
	assert.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Several debounce periods pass without the saved copy coming back in.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, count())

	saved, err := os.ReadDir(files.Dir())
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func TestWatcher_RequiresRoot(t *testing.T) {
	w := NewWatcher(nil, &recordingUploader{}, Config{})
	assert.Error(t, w.Start(context.Background()))
}

func TestAllowed(t *testing.T) {
	w := NewWatcher(nil, nil, Config{})
	assert.True(t, w.allowed("/x/report.DOCX"))
	assert.True(t, w.allowed("notes.txt"))
	assert.False(t, w.allowed("image.jpeg"))
	assert.False(t, w.allowed("README"))
}
