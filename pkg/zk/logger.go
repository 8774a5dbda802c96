package zk

import (
	szk "github.com/samuel/go-zookeeper/zk"
	"github.com/sirupsen/logrus"
)

// DebugLogger sends samuel zk log messages to a logrus logger at the debug level.
type DebugLogger struct {
	logger logrus.FieldLogger
}

var _ szk.Logger = (*DebugLogger)(nil)

func (l *DebugLogger) Printf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
