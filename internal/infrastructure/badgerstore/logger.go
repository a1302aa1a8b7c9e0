package badgerstore

import (
	"fmt"
	"strings"

	"github.com/decoflow/production-service/pkg/logging"
)

// badgerLogger routes badger's printf style logging into the service logger
type badgerLogger struct {
	logger *logging.Logger
}

func newBadgerLogger(logger *logging.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.WithComponent("badger")}
}

func format(f string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Errorf(f string, v ...any)   { l.logger.Error(format(f, v...)) }
func (l *badgerLogger) Warningf(f string, v ...any) { l.logger.Warn(format(f, v...)) }
func (l *badgerLogger) Infof(f string, v ...any)    { l.logger.Debug(format(f, v...)) }
func (l *badgerLogger) Debugf(f string, v ...any)   { l.logger.Debug(format(f, v...)) }
