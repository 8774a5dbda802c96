package zk

import (
	szk "github.com/samuel/go-zookeeper/zk"
)

// Lock is held by a single process at a time. It's satisfied by the samuel zk Lock.
type Lock interface {
	Unlock() error
}

var _ Lock = (*szk.Lock)(nil)
