package drive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

func init() {
	// Register LocalProvider as the default backend
	DefaultFactory = func(ctx context.Context, cfg *Config) (Provider, error) {
		return NewLocalProvider(ctx, cfg)
	}
}

// trashDir is where Trash moves folders, relative to the provider root.
// Dotted entries never appear in listings, so trashed folders drop out of
// the visible tree without being deleted.
const trashDir = ".trash"

// LocalProvider implements Provider over a billy filesystem rooted at a
// local directory.
//
// Folder IDs are slash-separated paths relative to the root ("." is the
// root itself). Resolve also accepts the provider's own file:// URLs, so
// a caller holding only a sheet link can get back to the folder. billy
// exposes modification time only, so CreatedAt mirrors ModifiedAt on
// every handle.
type LocalProvider struct {
	fs   billy.Filesystem
	base string // absolute root, used for file:// URLs
}

// NewLocalProvider creates a provider serving the directory in cfg.Root.
func NewLocalProvider(ctx context.Context, cfg *Config) (*LocalProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve drive root: %w", err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat drive root: %w", err)
	}
	if !fi.IsDir() {
		return nil, NewInvalidInputError("root", "not a directory")
	}

	return &LocalProvider{fs: osfs.New(abs), base: abs}, nil
}

// NewWithFilesystem builds a provider over an arbitrary billy filesystem.
// Tests use this with memfs; base only feeds the file:// URLs.
func NewWithFilesystem(fsys billy.Filesystem, base string) *LocalProvider {
	return &LocalProvider{fs: fsys, base: base}
}

// Resolve looks up a folder by its identifier.
func (p *LocalProvider) Resolve(ctx context.Context, id string) (*Folder, error) {
	if strings.HasPrefix(id, "file://") {
		rel, err := p.idFromURL(id)
		if err != nil {
			return nil, err
		}
		id = rel
	}
	id = cleanID(id)
	if id == "" {
		return nil, NewInvalidInputError("id", "empty")
	}
	if id == ".." || strings.HasPrefix(id, "../") {
		return nil, NewInvalidInputError("id", "outside drive root")
	}

	fi, err := p.fs.Stat(id)
	if err != nil {
		return nil, p.wrapFsErr(id, err)
	}
	if !fi.IsDir() {
		return nil, NewNotFoundError("folder", id)
	}

	return p.folder(id, fi), nil
}

// ListChildren returns the immediate subfolders of folder, ordered by name.
func (p *LocalProvider) ListChildren(ctx context.Context, folder *Folder) ([]*Folder, error) {
	if folder == nil || folder.ID == "" {
		return nil, NewInvalidInputError("folder", "nil handle")
	}

	entries, err := p.fs.ReadDir(folder.ID)
	if err != nil {
		return nil, p.wrapFsErr(folder.ID, err)
	}

	children := make([]*Folder, 0, len(entries))
	for _, fi := range entries {
		if !fi.IsDir() || hidden(fi.Name()) {
			continue
		}
		children = append(children, p.folder(path.Join(folder.ID, fi.Name()), fi))
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

// ListFiles returns the files directly contained in folder, ordered by name.
func (p *LocalProvider) ListFiles(ctx context.Context, folder *Folder) ([]*File, error) {
	if folder == nil || folder.ID == "" {
		return nil, NewInvalidInputError("folder", "nil handle")
	}

	entries, err := p.fs.ReadDir(folder.ID)
	if err != nil {
		return nil, p.wrapFsErr(folder.ID, err)
	}

	files := make([]*File, 0, len(entries))
	for _, fi := range entries {
		if fi.IsDir() || hidden(fi.Name()) {
			continue
		}
		id := path.Join(folder.ID, fi.Name())
		mod := fi.ModTime()
		files = append(files, &File{
			ID:         id,
			Name:       fi.Name(),
			URL:        p.urlFor(id),
			Size:       fi.Size(),
			CreatedAt:  mod,
			ModifiedAt: mod,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Trash moves a folder into the trash directory under the provider root.
func (p *LocalProvider) Trash(ctx context.Context, folder *Folder) error {
	if folder == nil || folder.ID == "" {
		return NewInvalidInputError("folder", "nil handle")
	}
	if folder.ID == "." {
		return NewInvalidInputError("folder", "cannot trash the drive root")
	}

	if _, err := p.fs.Stat(folder.ID); err != nil {
		return p.wrapFsErr(folder.ID, err)
	}

	if err := p.fs.MkdirAll(trashDir, 0o755); err != nil {
		return fmt.Errorf("failed to create trash directory: %w", err)
	}

	dest := path.Join(trashDir, path.Base(folder.ID))
	if _, err := p.fs.Stat(dest); err == nil {
		// Name already trashed once; keep both.
		dest = fmt.Sprintf("%s.%d", dest, time.Now().UnixNano())
	}

	if err := p.fs.Rename(folder.ID, dest); err != nil {
		return fmt.Errorf("failed to trash %s: %w", folder.ID, err)
	}
	return nil
}

func (p *LocalProvider) folder(id string, fi os.FileInfo) *Folder {
	name := fi.Name()
	if id == "." {
		name = filepath.Base(p.base)
	}
	mod := fi.ModTime()
	return &Folder{
		ID:         id,
		Name:       name,
		URL:        p.urlFor(id),
		CreatedAt:  mod,
		ModifiedAt: mod,
	}
}

func (p *LocalProvider) urlFor(id string) string {
	full := p.base
	if id != "." {
		full = filepath.Join(p.base, filepath.FromSlash(id))
	}
	return "file://" + filepath.ToSlash(full)
}

// idFromURL inverts urlFor: a file:// URL under the provider root maps
// back to a root-relative id.
func (p *LocalProvider) idFromURL(url string) (string, error) {
	full := strings.TrimPrefix(url, "file://")
	base := filepath.ToSlash(p.base)
	if full == base {
		return ".", nil
	}
	if base == "" || !strings.HasPrefix(full, base+"/") {
		return "", NewInvalidInputError("id", "url outside drive root")
	}
	return full[len(base)+1:], nil
}

// wrapFsErr maps filesystem failures onto the provider error taxonomy.
func (p *LocalProvider) wrapFsErr(id string, err error) error {
	switch {
	case os.IsNotExist(err):
		return NewNotFoundError("folder", id)
	case os.IsPermission(err):
		return NewAccessError(id, err)
	default:
		return fmt.Errorf("failed to access %s: %w", id, err)
	}
}

// cleanID normalizes a raw identifier to a root-relative slash path.
// Empty input stays empty so callers can reject it explicitly.
func cleanID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return path.Clean(strings.TrimPrefix(id, "/"))
}

// hidden filters dotted entries; the trash directory and lock files stay
// out of listings.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
