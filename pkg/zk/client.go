// Package zk wraps the samuel zookeeper client with context-aware calls.
package zk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	szk "github.com/samuel/go-zookeeper/zk"
	"github.com/sirupsen/logrus"
)

// ErrReadOnly is returned by write operations of a read-only client.
var ErrReadOnly = errors.New("Cannot write in read-only mode")

// Client exposes the zookeeper operations needed to read a cluster's topology and to
// drive its admin nodes.
type Client interface {
	Get(ctx context.Context, path string) ([]byte, error)
	GetJSON(ctx context.Context, path string, obj interface{}) error
	Children(ctx context.Context, path string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)

	Create(ctx context.Context, path string, data []byte) error
	CreateJSON(ctx context.Context, path string, obj interface{}) error
	Delete(ctx context.Context, path string) error

	AcquireLock(ctx context.Context, path string) (Lock, error)

	Close() error
}

// ClientConfig configures a ConnClient.
type ClientConfig struct {
	Addrs []string

	// Prefix is prepended to every path, for clusters that live under a chroot.
	Prefix string

	SessionTimeout time.Duration
	ReadOnly       bool
	Logger         logrus.FieldLogger
}

// ConnClient is a Client backed by a single samuel zk connection.
type ConnClient struct {
	conn     *szk.Conn
	prefix   string
	readOnly bool
	logger   logrus.FieldLogger
}

var _ Client = (*ConnClient)(nil)

// NewConnClient connects to zookeeper and returns a ConnClient.
func NewConnClient(config ClientConfig) (*ConnClient, error) {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := config.SessionTimeout
	if timeout == 0 {
		timeout = time.Minute
	}

	logger.Debugf("Creating zk client with addresses %+v", config.Addrs)
	conn, _, err := szk.Connect(
		config.Addrs,
		timeout,
		szk.WithLogger(&DebugLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to zk addrs %+v: %w", config.Addrs, err)
	}

	return &ConnClient{
		conn:     conn,
		prefix:   normalizePrefix(config.Prefix),
		readOnly: config.ReadOnly,
		logger:   logger,
	}, nil
}

// Get returns the value at the argument zk path.
func (c *ConnClient) Get(ctx context.Context, nodePath string) ([]byte, error) {
	fullPath := c.fullPath(nodePath)
	c.logger.Debugf("Getting path %s", fullPath)

	var data []byte
	err := runWithContext(ctx, func() error {
		var err error
		data, _, err = c.conn.Get(fullPath)
		return err
	})
	return data, err
}

// GetJSON unmarshals the JSON content at the argument zk path into an object.
func (c *ConnClient) GetJSON(ctx context.Context, nodePath string, obj interface{}) error {
	data, err := c.Get(ctx, nodePath)
	if err != nil {
		return err
	}
	return unmarshalNode(nodePath, data, obj)
}

// Children gets the names of all children of the node at the argument zk path.
func (c *ConnClient) Children(ctx context.Context, nodePath string) ([]string, error) {
	fullPath := c.fullPath(nodePath)
	c.logger.Debugf("Getting children at %s", fullPath)

	var children []string
	err := runWithContext(ctx, func() error {
		var err error
		children, _, err = c.conn.Children(fullPath)
		return err
	})
	return children, err
}

// Exists returns whether a node exists at the argument zk path.
func (c *ConnClient) Exists(ctx context.Context, nodePath string) (bool, error) {
	fullPath := c.fullPath(nodePath)

	var exists bool
	err := runWithContext(ctx, func() error {
		var err error
		exists, _, err = c.conn.Exists(fullPath)
		return err
	})
	return exists, err
}

// Create adds a new node with the argument contents at the argument zk path.
func (c *ConnClient) Create(ctx context.Context, nodePath string, data []byte) error {
	if c.readOnly {
		return ErrReadOnly
	}

	fullPath := c.fullPath(nodePath)
	c.logger.Debugf("Creating path %s", fullPath)

	return runWithContext(ctx, func() error {
		_, err := c.conn.Create(fullPath, data, 0, szk.WorldACL(szk.PermAll))
		return err
	})
}

// CreateJSON creates a new node at the argument zk path using the JSON-marshalled
// contents of the argument object.
func (c *ConnClient) CreateJSON(ctx context.Context, nodePath string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.Create(ctx, nodePath, data)
}

// Delete removes the node at the argument zk path, whatever its version.
func (c *ConnClient) Delete(ctx context.Context, nodePath string) error {
	if c.readOnly {
		return ErrReadOnly
	}
	fullPath := c.fullPath(nodePath)
	c.logger.Debugf("Deleting path %s", fullPath)

	return runWithContext(ctx, func() error {
		return c.conn.Delete(fullPath, -1)
	})
}

// AcquireLock tries to acquire a lock using the argument zk path.
func (c *ConnClient) AcquireLock(ctx context.Context, nodePath string) (Lock, error) {
	if c.readOnly {
		return nil, ErrReadOnly
	}

	lock := szk.NewLock(c.conn, c.fullPath(nodePath), szk.WorldACL(szk.PermAll))
	err := runWithContext(ctx, lock.Lock)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// Close closes the underlying connection.
func (c *ConnClient) Close() error {
	c.conn.Close()
	return nil
}

func (c *ConnClient) fullPath(nodePath string) string {
	if c.prefix == "" {
		return nodePath
	}
	return path.Join(c.prefix, nodePath)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func unmarshalNode(nodePath string, data []byte, obj interface{}) error {
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("Error parsing node %s: %w", nodePath, err)
	}
	return nil
}

// runWithContext runs a blocking zk call in a goroutine so that the caller can give up on
// it when ctx is done. The call itself isn't interrupted.
func runWithContext(ctx context.Context, call func() error) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- call()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}
