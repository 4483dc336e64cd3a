package database

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/charlesng35/teamflow/pkg/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// zapWriter forwards gorm's printf-style log lines to the database module
// logger at warn level; gorm only emits them for errors and slow queries at
// the levels we configure.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

// queryLogger reports slow queries and errors other than record-not-found.
// A negative threshold silences gorm entirely.
func queryLogger(slow time.Duration) gormlogger.Interface {
	if slow < 0 {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	if slow == 0 {
		slow = defaultSlowQuery
	}
	return gormlogger.New(zapWriter{log: logger.WithModule("database").Sugar()}, gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
