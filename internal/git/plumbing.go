package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteBlob writes content to the git object database and returns the SHA-1 hash.
func (r *Repository) WriteBlob(content []byte) (string, error) {
	if r.IsNil() {
		return "", fmt.Errorf("git repository not initialized")
	}

	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	writer, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("failed to create object writer: %w", err)
	}

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write blob content: %w", err)
	}
	writer.Close()

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return hash.String(), nil
}

// GetBlob retrieves the content of a blob by its SHA-1 hash.
func (r *Repository) GetBlob(hash string) ([]byte, error) {
	if r.IsNil() {
		return nil, fmt.Errorf("git repository not initialized")
	}

	h := plumbing.NewHash(strings.TrimPrefix(hash, "sha1:"))
	blob, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, fmt.Errorf("failed to find blob %s: %w", hash, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob reader: %w", err)
	}
	defer reader.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return buf.Bytes(), nil
}

// stageMerged is the stage of a resolved entry. go-git's index.Merged is 1 and aliases
// index.AncestorMode, so it cannot be used to detect stage 0.
const stageMerged index.Stage = 0

// IndexEntry is one (path, stage) slot of the index.
type IndexEntry struct {
	Mode  string // "100644", "100755", "120000"
	Hash  string
	Stage int // 0 merged, 1 base, 2 ours, 3 theirs
	Path  string
}

// SetUnmergedEntries replaces every index entry for path with the given stage entries,
// so git sees the path as conflicted (git status shows "both modified", rerere can
// record a preimage, git checkout --ours/--theirs works).
func (r *Repository) SetUnmergedEntries(path string, entries []IndexEntry) error {
	if r.IsNil() {
		return fmt.Errorf("git repository not initialized")
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	idx.Entries = withoutPath(idx.Entries, path)

	for _, e := range entries {
		if e.Path != path {
			return fmt.Errorf("index entry for %s does not belong to %s", e.Path, path)
		}
		mode, err := filemode.New(e.Mode)
		if err != nil {
			return fmt.Errorf("invalid file mode %q: %w", e.Mode, err)
		}
		idx.Entries = append(idx.Entries, &index.Entry{
			Name:  path,
			Hash:  plumbing.NewHash(e.Hash),
			Mode:  mode,
			Stage: index.Stage(e.Stage),
		})
	}

	return r.writeIndex(idx)
}

// UnmergedEntries lists every index entry with a non-zero stage.
func (r *Repository) UnmergedEntries() ([]IndexEntry, error) {
	if r.IsNil() {
		return nil, fmt.Errorf("git repository not initialized")
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var out []IndexEntry
	for _, e := range idx.Entries {
		if e.Stage == stageMerged {
			continue
		}
		out = append(out, IndexEntry{
			Mode:  fmt.Sprintf("%o", uint32(e.Mode)),
			Hash:  e.Hash.String(),
			Stage: int(e.Stage),
			Path:  e.Name,
		})
	}
	return out, nil
}

// ResetPath restores the index entry for path to the state recorded in HEAD, dropping
// any conflict stages. Paths absent from HEAD are removed from the index. Entries for
// other paths are not touched.
func (r *Repository) ResetPath(path string) error {
	if r.IsNil() {
		return fmt.Errorf("git repository not initialized")
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var current *index.Entry
	for _, e := range idx.Entries {
		if e.Name == path && e.Stage == stageMerged {
			current = e
		}
	}
	idx.Entries = withoutPath(idx.Entries, path)

	tree, err := r.headTree()
	if err != nil {
		return err
	}
	if tree != nil {
		entry, err := tree.FindEntry(path)
		switch {
		case err == nil && entry.Mode.IsFile():
			idx.Entries = append(idx.Entries, reuseOrNew(current, path, entry.Hash, entry.Mode))
		case err == nil, errors.Is(err, object.ErrEntryNotFound), errors.Is(err, object.ErrDirectoryNotFound):
		default:
			return fmt.Errorf("failed to look up %s in HEAD: %w", path, err)
		}
	}

	return r.writeIndex(idx)
}

// ResetIndex rebuilds the whole index from HEAD. Stage-0 entries that already match HEAD
// keep their cached stat data.
func (r *Repository) ResetIndex() error {
	if r.IsNil() {
		return fmt.Errorf("git repository not initialized")
	}

	tree, err := r.headTree()
	if err != nil {
		return err
	}
	if tree == nil {
		return fmt.Errorf("HEAD does not point to a commit")
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	existing := make(map[string]*index.Entry, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Stage == stageMerged {
			existing[e.Name] = e
		}
	}

	var entries []*index.Entry
	err = tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, reuseOrNew(existing[f.Name], f.Name, f.Hash, f.Mode))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk HEAD tree: %w", err)
	}
	idx.Entries = entries

	return r.writeIndex(idx)
}

func (r *Repository) headTree() (*object.Tree, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("git: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD tree: %w", err)
	}
	return tree, nil
}

func (r *Repository) writeIndex(idx *index.Index) error {
	// Sort entries by (Name, Stage) as required by git index format
	sort.Slice(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Name != idx.Entries[j].Name {
			return idx.Entries[i].Name < idx.Entries[j].Name
		}
		return idx.Entries[i].Stage < idx.Entries[j].Stage
	})

	// The cached tree extension no longer describes the entries.
	idx.Cache = nil

	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func withoutPath(entries []*index.Entry, path string) []*index.Entry {
	kept := make([]*index.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name != path {
			kept = append(kept, e)
		}
	}
	return kept
}

func reuseOrNew(current *index.Entry, path string, hash plumbing.Hash, mode filemode.FileMode) *index.Entry {
	if current != nil && current.Stage == stageMerged && current.Hash == hash && current.Mode == mode {
		return current
	}
	return &index.Entry{
		Name: path,
		Hash: hash,
		Mode: mode,
	}
}
