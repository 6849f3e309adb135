package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// filePermissions is the mode for newly created run logs.
const filePermissions = 0o644

// Log is the append-only run log shared by every build run on a host. It is
// created on first use and only ever appended to, so the history of earlier
// runs stays in place.
//
// Log implements zapcore.WriteSyncer and plain io.Writer, which lets the
// same open file receive both structured progress lines and the raw combined
// output of external build invocations.
type Log struct {
	id   string
	path string
	file *os.File
}

// Open opens the run log at path, creating it if absent, and appends a
// banner carrying a fresh run identifier so consecutive runs can be told
// apart inside the shared file.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	log := &Log{
		id:   uuid.NewString(),
		path: path,
		file: file,
	}

	if _, err := fmt.Fprintf(file, "==== %s run %s ====\n",
		time.Now().Format(time.RFC3339), log.id); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("write run banner: %w", err)
	}

	return log, nil
}

// ID returns the identifier of the current run.
func (l *Log) ID() string {
	return l.id
}

// Path returns the file backing this log.
func (l *Log) Path() string {
	return l.path
}

// Write appends raw bytes to the log.
func (l *Log) Write(p []byte) (int, error) {
	return l.file.Write(p)
}

// Sync flushes the log to stable storage.
func (l *Log) Sync() error {
	return l.file.Sync()
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()

		return fmt.Errorf("sync run log: %w", err)
	}

	return l.file.Close()
}
