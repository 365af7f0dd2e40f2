package store

import (
	"context"
	"errors"
	"io"
	"time"
)

// Kind discriminates folder entries.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

// ErrNotExist is returned when a node cannot be resolved for the owner.
var ErrNotExist = errors.New("store: node does not exist")

// NodeInfo describes a file or folder as the store sees it. Path is the
// canonical store path; access scoping compares these paths.
type NodeInfo struct {
	ID       int64
	Name     string
	Kind     Kind
	MimeType string
	Size     int64
	ModTime  time.Time
	Path     string
}

// IsFolder reports whether the node is a folder.
func (n NodeInfo) IsFolder() bool { return n.Kind == KindFolder }

// Store is the hierarchical file storage boundary. Implementations must be
// safe for concurrent use.
type Store interface {
	// NodeByID resolves a node by store-assigned identifier, scoped to an owner.
	NodeByID(ctx context.Context, ownerID, id int64) (NodeInfo, error)

	// List returns the direct children of a folder.
	List(ctx context.Context, ownerID, folderID int64) ([]NodeInfo, error)

	// Open opens a file for streamed reading.
	Open(ctx context.Context, ownerID, fileID int64) (io.ReadCloser, error)

	// Put creates or replaces a file inside a folder.
	Put(ctx context.Context, ownerID, folderID int64, name string, r io.Reader) (NodeInfo, error)

	// Delete removes a file.
	Delete(ctx context.Context, ownerID, fileID int64) error

	// EnsureFolder returns the named child folder, creating it if absent.
	// A parentID <= 0 addresses the owner's root folder.
	EnsureFolder(ctx context.Context, ownerID, parentID int64, name string) (NodeInfo, error)
}
