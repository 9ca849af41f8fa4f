package manifest

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	fsopsMocks "github.com/0xa1bed0/dimg/internal/fsops/mocks"
	"go.uber.org/mock/gomock"
)

type fakeFileInfo struct {
	name string
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

func TestCleanupIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	osOps := fsopsMocks.NewMockOSOps(ctrl)
	gomock.InOrder(
		osOps.EXPECT().Stat("/p/embed.dimg").Return(fakeFileInfo{name: "embed.dimg"}, nil),
		osOps.EXPECT().Remove("/p/embed.dimg").Return(nil),
		osOps.EXPECT().Stat("/p/Dockerfile.dimg").Return(fakeFileInfo{name: "Dockerfile.dimg"}, nil),
		osOps.EXPECT().Remove("/p/Dockerfile.dimg").Return(nil),
	)

	changes := newChangeSet(osOps)
	changes.track("/p/embed.dimg")
	changes.track("/p/Dockerfile.dimg")

	if err := changes.Cleanup(); err != nil {
		t.Fatalf("first Cleanup returned error: %v", err)
	}
	// No further expectations: a second call must not touch the filesystem.
	if err := changes.Cleanup(); err != nil {
		t.Fatalf("second Cleanup returned error: %v", err)
	}
	if got := changes.CreatedFiles(); len(got) != 0 {
		t.Fatalf("CreatedFiles after cleanup = %v", got)
	}
}

func TestCleanupSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	osOps := fsopsMocks.NewMockOSOps(ctrl)
	osOps.EXPECT().Stat("/p/embed.dimg").Return(nil, fs.ErrNotExist)
	osOps.EXPECT().Remove(gomock.Any()).Times(0)

	changes := newChangeSet(osOps)
	changes.track("/p/embed.dimg")

	if err := changes.Cleanup(); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
}

func TestCleanupContinuesAfterRemoveFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	removeErr := errors.New("permission denied")
	osOps := fsopsMocks.NewMockOSOps(ctrl)
	gomock.InOrder(
		osOps.EXPECT().Stat("/p/a").Return(fakeFileInfo{name: "a"}, nil),
		osOps.EXPECT().Remove("/p/a").Return(removeErr),
		osOps.EXPECT().Stat("/p/b").Return(fakeFileInfo{name: "b"}, nil),
		osOps.EXPECT().Remove("/p/b").Return(nil),
	)

	changes := newChangeSet(osOps)
	changes.track("/p/a")
	changes.track("/p/b")

	err := changes.Cleanup()
	if !errors.Is(err, removeErr) {
		t.Fatalf("expected joined remove error, got %v", err)
	}
	if got := changes.CreatedFiles(); len(got) != 0 {
		t.Fatalf("CreatedFiles after cleanup = %v", got)
	}
	if err := changes.Cleanup(); err != nil {
		t.Fatalf("second Cleanup returned error: %v", err)
	}
}

func TestUnmodifiedChangeSet(t *testing.T) {
	t.Parallel()

	changes := Unmodified()
	if changes.IsModified() {
		t.Fatal("Unmodified() reports modified")
	}
	if err := changes.Cleanup(); err != nil {
		t.Fatalf("Cleanup on empty ChangeSet returned error: %v", err)
	}

	var nilChanges *ChangeSet
	if nilChanges.IsModified() || nilChanges.GeneratedManifest() != "" {
		t.Fatal("nil ChangeSet must be unmodified")
	}
}
