package scan

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/folioscan/folio/pkg/drive"
)

func TestClassify(t *testing.T) {
	fs := memfs.New()
	mkdir(t, fs, "leaf")
	mkdir(t, fs, "with-file")
	addFile(t, fs, "with-file/doc.txt")
	mkdir(t, fs, "deep-file/a/b/c")
	addFile(t, fs, "deep-file/a/b/c/doc.txt")
	mkdir(t, fs, "empty-tree/a")
	mkdir(t, fs, "empty-tree/b/c")
	mkdir(t, fs, "at-bound/c1/c2/c3/c4/c5")
	mkdir(t, fs, "past-bound/c1/c2/c3/c4/c5/c6")
	mkdir(t, fs, "file-past-bound/c1/c2/c3/c4/c5/c6")
	addFile(t, fs, "file-past-bound/c1/c2/c3/c4/c5/c6/doc.txt")
	mkdir(t, fs, "mixed/empty")
	mkdir(t, fs, "mixed/full")
	addFile(t, fs, "mixed/full/doc.txt")

	svc := NewService().WithProvider(drive.NewWithFilesystem(fs, "/drive"))
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		want Classification
	}{
		{"empty leaf", "leaf", ClassEmptyLeaf},
		{"direct file", "with-file", ClassHasFiles},
		{"file below the surface", "deep-file", ClassHasFiles},
		{"empty subtree", "empty-tree", ClassEmptySubtree},
		{"empty chain at the depth bound", "at-bound", ClassEmptySubtree},
		{"chain past the depth bound", "past-bound", ClassHasSubfolders},
		{"file hidden past the depth bound", "file-past-bound", ClassHasSubfolders},
		{"one branch with files", "mixed", ClassHasFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Classify(ctx, tt.id)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_AcceptsSheetURL(t *testing.T) {
	fs := memfs.New()
	mkdir(t, fs, "leaf")
	svc := NewService().WithProvider(drive.NewWithFilesystem(fs, "/drive"))

	got, err := svc.Classify(context.Background(), "file:///drive/leaf")
	require.NoError(t, err)
	require.Equal(t, ClassEmptyLeaf, got)
}

func TestClassify_MissingFolder(t *testing.T) {
	svc := NewService().WithProvider(drive.NewWithFilesystem(memfs.New(), "/drive"))

	_, err := svc.Classify(context.Background(), "gone")
	require.Error(t, err)
	require.True(t, drive.IsNotFound(err))
}

func TestClassify_NoProvider(t *testing.T) {
	_, err := NewService().Classify(context.Background(), "leaf")
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestClassify_CancelledContext(t *testing.T) {
	fs := memfs.New()
	mkdir(t, fs, "leaf")
	svc := NewService().WithProvider(drive.NewWithFilesystem(fs, "/drive"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Classify(ctx, "leaf")
	require.ErrorIs(t, err, context.Canceled)
}
