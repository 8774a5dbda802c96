package zk

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"sync"

	szk "github.com/samuel/go-zookeeper/zk"
)

// MemoryClient is an in-memory Client. Parent nodes are implicit: creating /a/b/c makes
// /a and /a/b exist with empty contents.
type MemoryClient struct {
	mu sync.Mutex

	nodes  map[string][]byte
	locked map[string]bool

	// Created holds the path and raw contents of every created node, in order.
	Created []PathTuple

	// OnCreate, if set, is called after every successful create.
	OnCreate func(c *MemoryClient, path string)
}

var _ Client = (*MemoryClient)(nil)

// PathTuple is a <path, object> combination for a single node.
type PathTuple struct {
	Path string
	Obj  interface{}
}

// NewMemoryClient returns a MemoryClient with the argument nodes, whose objects are
// stored JSON-marshalled. Nil objects and []byte objects are stored as is.
func NewMemoryClient(tuples ...PathTuple) (*MemoryClient, error) {
	c := &MemoryClient{
		nodes:  map[string][]byte{},
		locked: map[string]bool{},
	}
	for _, tuple := range tuples {
		data, err := nodeData(tuple.Obj)
		if err != nil {
			return nil, err
		}
		c.set(tuple.Path, data)
	}
	return c, nil
}

func (c *MemoryClient) Get(ctx context.Context, nodePath string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.nodes[path.Clean(nodePath)]
	if !ok {
		return nil, szk.ErrNoNode
	}
	return data, nil
}

func (c *MemoryClient) GetJSON(ctx context.Context, nodePath string, obj interface{}) error {
	data, err := c.Get(ctx, nodePath)
	if err != nil {
		return err
	}
	return unmarshalNode(nodePath, data, obj)
}

func (c *MemoryClient) Children(ctx context.Context, nodePath string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parent := path.Clean(nodePath)
	if _, ok := c.nodes[parent]; !ok {
		return nil, szk.ErrNoNode
	}

	children := []string{}
	for nodePath := range c.nodes {
		if nodePath != parent && path.Dir(nodePath) == parent {
			children = append(children, path.Base(nodePath))
		}
	}
	sort.Strings(children)
	return children, nil
}

func (c *MemoryClient) Exists(ctx context.Context, nodePath string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.nodes[path.Clean(nodePath)]
	return ok, nil
}

func (c *MemoryClient) Create(ctx context.Context, nodePath string, data []byte) error {
	c.mu.Lock()
	cleaned := path.Clean(nodePath)
	if _, ok := c.nodes[cleaned]; ok {
		c.mu.Unlock()
		return szk.ErrNodeExists
	}
	c.set(cleaned, data)
	c.Created = append(c.Created, PathTuple{Path: cleaned, Obj: data})
	onCreate := c.OnCreate
	c.mu.Unlock()

	if onCreate != nil {
		onCreate(c, cleaned)
	}
	return nil
}

func (c *MemoryClient) CreateJSON(ctx context.Context, nodePath string, obj interface{}) error {
	data, err := nodeData(obj)
	if err != nil {
		return err
	}
	return c.Create(ctx, nodePath, data)
}

func (c *MemoryClient) Delete(ctx context.Context, nodePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleaned := path.Clean(nodePath)
	if _, ok := c.nodes[cleaned]; !ok {
		return szk.ErrNoNode
	}
	for other := range c.nodes {
		if strings.HasPrefix(other, cleaned+"/") {
			return szk.ErrNotEmpty
		}
	}
	delete(c.nodes, cleaned)
	return nil
}

func (c *MemoryClient) AcquireLock(ctx context.Context, nodePath string) (Lock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleaned := path.Clean(nodePath)
	if c.locked[cleaned] {
		return nil, szk.ErrDeadlock
	}
	c.locked[cleaned] = true
	return &memoryLock{client: c, path: cleaned}, nil
}

func (c *MemoryClient) Close() error {
	return nil
}

// Locked returns whether the lock at the argument path is held.
func (c *MemoryClient) Locked(nodePath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked[path.Clean(nodePath)]
}

func (c *MemoryClient) set(nodePath string, data []byte) {
	cleaned := path.Clean(nodePath)
	c.nodes[cleaned] = data

	for parent := path.Dir(cleaned); parent != "/" && parent != "."; parent = path.Dir(parent) {
		if _, ok := c.nodes[parent]; !ok {
			c.nodes[parent] = nil
		}
	}
}

func nodeData(obj interface{}) ([]byte, error) {
	switch value := obj.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	default:
		return json.Marshal(obj)
	}
}

type memoryLock struct {
	client *MemoryClient
	path   string
}

func (l *memoryLock) Unlock() error {
	l.client.mu.Lock()
	defer l.client.mu.Unlock()
	delete(l.client.locked, l.path)
	return nil
}
