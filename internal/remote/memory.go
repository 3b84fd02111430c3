package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Storage used by tests. Failure injection maps are
// keyed by node name; a present entry makes the corresponding operation fail
// with that error.
type Memory struct {
	mu     sync.Mutex
	nodes  map[string]*memNode
	nextID int
	clock  time.Time

	DeleteErr   map[string]error
	CreateErr   map[string]error
	UpdateErr   map[string]error
	DownloadErr map[string]error
}

type memNode struct {
	node     Node
	parentID string
	data     []byte
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		nodes:       make(map[string]*memNode),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DeleteErr:   make(map[string]error),
		CreateErr:   make(map[string]error),
		UpdateErr:   make(map[string]error),
		DownloadErr: make(map[string]error),
	}
}

func (m *Memory) List(ctx context.Context, parentID string) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Node
	for _, n := range m.nodes {
		if n.parentID == parentID {
			out = append(out, n.node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) FindChild(ctx context.Context, parentID, name string) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.nodes {
		if n.parentID == parentID && n.node.Name == name {
			node := n.node
			return &node, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListFolders(ctx context.Context, parentID, prefix string) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Node
	for _, n := range m.nodes {
		if n.parentID == parentID && n.node.Folder && strings.HasPrefix(n.node.Name, prefix) {
			out = append(out, n.node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (m *Memory) LatestFolder(ctx context.Context, parentID, prefix string) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Node
	for _, n := range m.nodes {
		if n.parentID != parentID || !n.node.Folder || !strings.HasPrefix(n.node.Name, prefix) {
			continue
		}
		if latest == nil || n.node.CreatedAt.After(latest.CreatedAt) {
			node := n.node
			latest = &node
		}
	}
	return latest, nil
}

func (m *Memory) CreateFolder(ctx context.Context, parentID, name string) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.CreateErr[name]; err != nil {
		return nil, err
	}
	n := m.add(parentID, name, true, nil)
	return &n, nil
}

func (m *Memory) CreateFile(ctx context.Context, parentID, name, contentType string, r io.Reader, size int64) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.CreateErr[name]; err != nil {
		return nil, err
	}
	n := m.add(parentID, name, false, data)
	return &n, nil
}

func (m *Memory) UpdateFile(ctx context.Context, id, contentType string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("memory: no such file %s", id)
	}
	if err := m.UpdateErr[n.node.Name]; err != nil {
		return err
	}
	n.data = data
	return nil
}

func (m *Memory) Download(ctx context.Context, id string, w io.Writer) error {
	m.mu.Lock()
	n, ok := m.nodes[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("memory: no such file %s", id)
	}
	if err := m.DownloadErr[n.node.Name]; err != nil {
		m.mu.Unlock()
		return err
	}
	data := n.data
	m.mu.Unlock()

	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("memory: no such node %s", id)
	}
	if err := m.DeleteErr[n.node.Name]; err != nil {
		return err
	}
	m.remove(id)
	return nil
}

// Content returns the bytes of a stored file, for test assertions.
func (m *Memory) Content(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok || n.node.Folder {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// AddFolder inserts a folder directly, for test setup. Creation times
// advance by one minute per inserted node, so insertion order equals
// creation order.
func (m *Memory) AddFolder(parentID, name string) Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(parentID, name, true, nil)
}

func (m *Memory) add(parentID, name string, folder bool, data []byte) Node {
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	n := &memNode{
		node: Node{
			ID:        fmt.Sprintf("node-%d", m.nextID),
			Name:      name,
			Folder:    folder,
			CreatedAt: m.clock,
		},
		parentID: parentID,
		data:     data,
	}
	m.nodes[n.node.ID] = n
	return n.node
}

func (m *Memory) remove(id string) {
	for childID, n := range m.nodes {
		if n.parentID == id {
			m.remove(childID)
		}
	}
	delete(m.nodes, id)
}
