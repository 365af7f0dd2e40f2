package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// Disk is a Store rooted at a local directory, one subtree per owner
// (<root>/<ownerID>/...). Node identifiers are inode numbers, which are
// stable for the lifetime of a file and survive renames within a filesystem.
type Disk struct {
	root string
}

// NewDisk returns a disk-backed store rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{root: dir}
}

func (d *Disk) ownerRoot(ownerID int64) string {
	return filepath.Join(d.root, strconv.FormatInt(ownerID, 10))
}

func inodeOf(fi fs.FileInfo) int64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return int64(st.Ino)
	}
	return 0
}

func mimeOf(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// nodeInfo builds a NodeInfo for a path below the owner root. The canonical
// store path is /<ownerID>/files/<relative path>.
func (d *Disk) nodeInfo(ownerID int64, absPath string, fi fs.FileInfo) NodeInfo {
	rel, err := filepath.Rel(d.ownerRoot(ownerID), absPath)
	if err != nil {
		rel = fi.Name()
	}
	storePath := fmt.Sprintf("/%d/files", ownerID)
	if rel != "." {
		storePath += "/" + filepath.ToSlash(rel)
	}
	info := NodeInfo{
		ID:      inodeOf(fi),
		Name:    fi.Name(),
		ModTime: fi.ModTime(),
		Path:    storePath,
	}
	if fi.IsDir() {
		info.Kind = KindFolder
	} else {
		info.Kind = KindFile
		info.Size = fi.Size()
		info.MimeType = mimeOf(fi.Name())
	}
	return info
}

// pathByID locates the filesystem path whose inode matches id.
func (d *Disk) pathByID(ctx context.Context, ownerID, id int64) (string, fs.FileInfo, error) {
	var foundPath string
	var foundInfo fs.FileInfo
	err := filepath.WalkDir(d.ownerRoot(ownerID), func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are just skipped
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fi, err := de.Info()
		if err != nil {
			return nil
		}
		if inodeOf(fi) == id {
			foundPath = path
			foundInfo = fi
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if foundPath == "" {
		return "", nil, ErrNotExist
	}
	return foundPath, foundInfo, nil
}

// NodeByID implements Store.
func (d *Disk) NodeByID(ctx context.Context, ownerID, id int64) (NodeInfo, error) {
	path, fi, err := d.pathByID(ctx, ownerID, id)
	if err != nil {
		return NodeInfo{}, err
	}
	return d.nodeInfo(ownerID, path, fi), nil
}

// List implements Store.
func (d *Disk) List(ctx context.Context, ownerID, folderID int64) ([]NodeInfo, error) {
	path, fi, err := d.pathByID(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, ErrNotExist
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]NodeInfo, 0, len(entries))
	for _, de := range entries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, d.nodeInfo(ownerID, filepath.Join(path, de.Name()), info))
	}
	return out, nil
}

// Open implements Store.
func (d *Disk) Open(ctx context.Context, ownerID, fileID int64) (io.ReadCloser, error) {
	path, fi, err := d.pathByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, ErrNotExist
	}
	return os.Open(path)
}

// Put implements Store.
func (d *Disk) Put(ctx context.Context, ownerID, folderID int64, name string, r io.Reader) (NodeInfo, error) {
	dir, fi, err := d.pathByID(ctx, ownerID, folderID)
	if err != nil {
		return NodeInfo{}, err
	}
	if !fi.IsDir() {
		return NodeInfo{}, ErrNotExist
	}
	dest := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(dest)
	if err != nil {
		return NodeInfo{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return NodeInfo{}, err
	}
	if err := f.Close(); err != nil {
		return NodeInfo{}, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return NodeInfo{}, err
	}
	return d.nodeInfo(ownerID, dest, info), nil
}

// Delete implements Store.
func (d *Disk) Delete(ctx context.Context, ownerID, fileID int64) error {
	path, fi, err := d.pathByID(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return ErrNotExist
	}
	return os.Remove(path)
}

// EnsureFolder implements Store.
func (d *Disk) EnsureFolder(ctx context.Context, ownerID, parentID int64, name string) (NodeInfo, error) {
	parent := d.ownerRoot(ownerID)
	if parentID > 0 {
		path, fi, err := d.pathByID(ctx, ownerID, parentID)
		if err != nil {
			return NodeInfo{}, err
		}
		if !fi.IsDir() {
			return NodeInfo{}, ErrNotExist
		}
		parent = path
	}
	dir := filepath.Join(parent, filepath.Base(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NodeInfo{}, err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return NodeInfo{}, err
	}
	return d.nodeInfo(ownerID, dir, fi), nil
}
