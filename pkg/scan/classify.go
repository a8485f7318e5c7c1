package scan

import (
	"context"

	"github.com/folioscan/folio/pkg/drive"
)

// Classification is the verdict of the empty-subtree check.
type Classification string

const (
	// ClassHasFiles: the folder or a descendant within the depth bound
	// contains at least one file.
	ClassHasFiles Classification = "hasFiles"

	// ClassEmptyLeaf: no files and no subfolders at all.
	ClassEmptyLeaf Classification = "emptyLeaf"

	// ClassEmptySubtree: no files anywhere, and every branch resolved to
	// an empty leaf within the depth bound.
	ClassEmptySubtree Classification = "emptySubtree"

	// ClassHasSubfolders: inconclusive. The subtree did not fully resolve
	// within the depth bound, so it is never treated as empty.
	ClassHasSubfolders Classification = "hasSubfolders"
)

// maxClassifyDepth bounds the DFS below the folder under test. Branches
// that do not resolve within the bound report ClassHasSubfolders.
const maxClassifyDepth = 5

// Classify runs the empty-subtree check for one folder id (or sheet URL).
// The walk has no checkpointing: it either finishes within the depth
// bound or reports inconclusive.
func (s *Service) Classify(ctx context.Context, id string) (Classification, error) {
	if s.provider == nil {
		return "", NewValidationError("provider", "not configured")
	}
	folder, err := s.provider.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return s.classifyFolder(ctx, folder, maxClassifyDepth)
}

func (s *Service) classifyFolder(ctx context.Context, f *drive.Folder, depth int) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	files, err := s.provider.ListFiles(ctx, f)
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		return ClassHasFiles, nil
	}

	children, err := s.provider.ListChildren(ctx, f)
	if err != nil {
		return "", err
	}
	if len(children) == 0 {
		return ClassEmptyLeaf, nil
	}
	if depth <= 0 {
		return ClassHasSubfolders, nil
	}

	inconclusive := false
	for _, child := range children {
		verdict, err := s.classifyFolder(ctx, child, depth-1)
		if err != nil {
			return "", err
		}
		switch verdict {
		case ClassHasFiles:
			return ClassHasFiles, nil
		case ClassHasSubfolders:
			inconclusive = true
		}
	}
	if inconclusive {
		return ClassHasSubfolders, nil
	}
	return ClassEmptySubtree, nil
}
