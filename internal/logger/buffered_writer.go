package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	// DefaultBufferSize batches small JSON records into fewer writes
	DefaultBufferSize = 32 * 1024

	// DefaultFlushInterval bounds how long a record can sit in the buffer
	DefaultFlushInterval = 5 * time.Second

	// LogFilePermissions is used for every log file created by the logger
	LogFilePermissions = 0o600
)

// BufferedFileWriter is a goroutine-safe buffered appender for a log file
// that flushes itself periodically.
type BufferedFileWriter struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	path     string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

// BufferedWriterOption configures a BufferedFileWriter
type BufferedWriterOption func(*bufferedWriterOptions)

type bufferedWriterOptions struct {
	size     int
	interval time.Duration
}

// WithBufferSize overrides DefaultBufferSize
func WithBufferSize(size int) BufferedWriterOption {
	return func(o *bufferedWriterOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithFlushInterval overrides DefaultFlushInterval. Zero disables the background flush.
func WithFlushInterval(interval time.Duration) BufferedWriterOption {
	return func(o *bufferedWriterOptions) {
		if interval >= 0 {
			o.interval = interval
		}
	}
}

// NewBufferedFileWriter opens path for appending, creating it if needed
func NewBufferedFileWriter(path string, opts ...BufferedWriterOption) (*BufferedFileWriter, error) {
	o := bufferedWriterOptions{size: DefaultBufferSize, interval: DefaultFlushInterval}
	for _, opt := range opts {
		opt(&o)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w := &BufferedFileWriter{
		file:     file,
		writer:   bufio.NewWriterSize(file, o.size),
		path:     path,
		interval: o.interval,
	}
	if o.interval > 0 {
		w.stop = make(chan struct{})
		w.done = make(chan struct{})
		go w.flushLoop()
	}
	return w, nil
}

func (w *BufferedFileWriter) flushLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = w.Flush()
		case <-w.stop:
			return
		}
	}
}

// Write implements io.Writer
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.writer.Write(p)
}

// Flush pushes buffered bytes to the file without fsync
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.writer.Flush()
}

// Close stops the flush loop, then flushes, syncs and closes the file. Safe to call twice.
func (w *BufferedFileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.stop != nil {
		close(w.stop)
		<-w.done
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if err := w.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush buffer: %w", err))
	}
	if err := w.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync file: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close file: %w", err))
	}
	return errors.Join(errs...)
}

// Path returns the file path
func (w *BufferedFileWriter) Path() string {
	return w.path
}

var _ io.WriteCloser = (*BufferedFileWriter)(nil)
