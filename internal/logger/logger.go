package logger

import (
	"io"
	"log"
	"os"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger is the progress logger shared by the miner and the CLI. The
// embedded *log.Logger provides Printf, Println and SetFlags.
type Logger struct {
	*log.Logger
}

// New returns a logger writing timestamped lines to stdout
func New() *Logger {
	return NewWriter(os.Stdout)
}

// NewWriter returns a logger writing timestamped lines to w
func NewWriter(w io.Writer) *Logger {
	return &Logger{log.New(w, "", LstdFlags)}
}

// Discard creates a logger that drops everything, for library callers
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// OpenFile creates a logger appending to the named file. The caller closes
// the returned file.
func OpenFile(path string) (*Logger, *os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := NewWriter(file)
	l.SetFlags(LstdFlags | Lmicroseconds)
	return l, file, nil
}
