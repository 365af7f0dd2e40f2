package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store with deterministic identifiers. It backs the
// test suites and is good enough for single-process demo deployments.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	nodes  map[int64]*memNode
	roots  map[int64]int64 // ownerID -> root node id
}

type memNode struct {
	info     NodeInfo
	ownerID  int64
	parentID int64
	data     []byte
	children map[string]int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nodes: make(map[int64]*memNode),
		roots: make(map[int64]int64),
	}
}

func (m *Memory) rootLocked(ownerID int64) *memNode {
	if id, ok := m.roots[ownerID]; ok {
		return m.nodes[id]
	}
	m.nextID++
	n := &memNode{
		info: NodeInfo{
			ID:   m.nextID,
			Name: "files",
			Kind: KindFolder,
			Path: fmt.Sprintf("/%d/files", ownerID),
		},
		ownerID:  ownerID,
		children: make(map[string]int64),
	}
	m.nodes[n.info.ID] = n
	m.roots[ownerID] = n.info.ID
	return n
}

// Root returns the owner's root folder, creating it on first use.
func (m *Memory) Root(ownerID int64) NodeInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootLocked(ownerID).info
}

// AddFolder creates a folder under parentID (<= 0 means the owner's root).
func (m *Memory) AddFolder(ownerID, parentID int64, name string) NodeInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addFolderLocked(ownerID, parentID, name)
}

func (m *Memory) addFolderLocked(ownerID, parentID int64, name string) NodeInfo {
	parent := m.parentLocked(ownerID, parentID)
	m.nextID++
	n := &memNode{
		info: NodeInfo{
			ID:   m.nextID,
			Name: name,
			Kind: KindFolder,
			Path: parent.info.Path + "/" + name,
		},
		ownerID:  ownerID,
		parentID: parent.info.ID,
		children: make(map[string]int64),
	}
	m.nodes[n.info.ID] = n
	parent.children[name] = n.info.ID
	return n.info
}

// AddFile creates or replaces a file under parentID (<= 0 means the owner's
// root). An empty mimeType is derived from the file extension.
func (m *Memory) AddFile(ownerID, parentID int64, name, mimeType string, modTime time.Time, data []byte) NodeInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(ownerID, parentID, name, mimeType, modTime, data)
}

func (m *Memory) parentLocked(ownerID, parentID int64) *memNode {
	if parentID <= 0 {
		return m.rootLocked(ownerID)
	}
	if n, ok := m.nodes[parentID]; ok && n.ownerID == ownerID && n.info.IsFolder() {
		return n
	}
	return m.rootLocked(ownerID)
}

func (m *Memory) putLocked(ownerID, parentID int64, name, mimeType string, modTime time.Time, data []byte) NodeInfo {
	parent := m.parentLocked(ownerID, parentID)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
	}
	if id, ok := parent.children[name]; ok {
		n := m.nodes[id]
		n.data = data
		n.info.Size = int64(len(data))
		n.info.ModTime = modTime
		n.info.MimeType = mimeType
		return n.info
	}
	m.nextID++
	n := &memNode{
		info: NodeInfo{
			ID:       m.nextID,
			Name:     name,
			Kind:     KindFile,
			MimeType: mimeType,
			Size:     int64(len(data)),
			ModTime:  modTime,
			Path:     parent.info.Path + "/" + name,
		},
		ownerID:  ownerID,
		parentID: parent.info.ID,
		data:     data,
	}
	m.nodes[n.info.ID] = n
	parent.children[name] = n.info.ID
	return n.info
}

func (m *Memory) nodeLocked(ownerID, id int64) (*memNode, error) {
	n, ok := m.nodes[id]
	if !ok || n.ownerID != ownerID {
		return nil, ErrNotExist
	}
	return n, nil
}

// NodeByID implements Store.
func (m *Memory) NodeByID(_ context.Context, ownerID, id int64) (NodeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.nodeLocked(ownerID, id)
	if err != nil {
		return NodeInfo{}, err
	}
	return n.info, nil
}

// List implements Store. Children are returned sorted by name so that a
// fixed store state always lists in the same order.
func (m *Memory) List(_ context.Context, ownerID, folderID int64) ([]NodeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.nodeLocked(ownerID, folderID)
	if err != nil {
		return nil, err
	}
	if !n.info.IsFolder() {
		return nil, ErrNotExist
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]NodeInfo, 0, len(names))
	for _, name := range names {
		out = append(out, m.nodes[n.children[name]].info)
	}
	return out, nil
}

// Open implements Store.
func (m *Memory) Open(_ context.Context, ownerID, fileID int64) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.nodeLocked(ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if n.info.IsFolder() {
		return nil, ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(n.data)), nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, ownerID, folderID int64, name string, r io.Reader) (NodeInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return NodeInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.nodeLocked(ownerID, folderID); folderID > 0 && err != nil {
		return NodeInfo{}, err
	}
	return m.putLocked(ownerID, folderID, name, "", time.Now(), data), nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, ownerID, fileID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.nodeLocked(ownerID, fileID)
	if err != nil {
		return err
	}
	if parent, ok := m.nodes[n.parentID]; ok {
		delete(parent.children, n.info.Name)
	}
	delete(m.nodes, fileID)
	return nil
}

// EnsureFolder implements Store.
func (m *Memory) EnsureFolder(_ context.Context, ownerID, parentID int64, name string) (NodeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent := m.parentLocked(ownerID, parentID)
	if id, ok := parent.children[name]; ok {
		n := m.nodes[id]
		if !n.info.IsFolder() {
			return NodeInfo{}, fmt.Errorf("store: %q exists and is not a folder", name)
		}
		return n.info, nil
	}
	return m.addFolderLocked(ownerID, parentID, name), nil
}
