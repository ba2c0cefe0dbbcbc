package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// FileWriterOptions tunes the asynchronous log file writer. Zero values fall
// back to the logging config defaults.
type FileWriterOptions struct {
	BufferSize    int
	QueueSize     int
	FlushInterval time.Duration
}

func (o FileWriterOptions) withDefaults() FileWriterOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = 32 * 1024
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 2 * time.Second
	}
	return o
}

// AsyncFileWriter queues log lines so request handlers never block on disk.
// When the queue is full the line is dropped and counted; the count is
// reported in the file itself on the next flush so the loss is visible where
// the logs are read.
type AsyncFileWriter struct {
	file    *os.File
	writer  *bufio.Writer
	mu      sync.Mutex
	queue   chan []byte
	done    chan struct{}
	drained chan struct{}
	closed  sync.Once
	dropped atomic.Uint64
	flush   time.Duration
}

func NewAsyncFileWriter(logFile string, opts FileWriterOptions) (*AsyncFileWriter, error) {
	opts = opts.withDefaults()

	file, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	w := &AsyncFileWriter{
		file:    file,
		writer:  bufio.NewWriterSize(file, opts.BufferSize),
		queue:   make(chan []byte, opts.QueueSize),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
		flush:   opts.FlushInterval,
	}

	go w.run()

	return w, nil
}

// Write queues one log line. It never blocks; a full queue drops the line
// and the loss surfaces through the drop report on the next flush.
func (w *AsyncFileWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case w.queue <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped returns how many lines were discarded because the queue was full.
func (w *AsyncFileWriter) Dropped() uint64 {
	return w.dropped.Load()
}

func (w *AsyncFileWriter) run() {
	defer close(w.drained)

	ticker := time.NewTicker(w.flush)
	defer ticker.Stop()

	for {
		select {
		case line := <-w.queue:
			w.append(line)

		case <-ticker.C:
			w.flushBuffer()

		case <-w.done:
			w.drain()
			w.flushBuffer()
			return
		}
	}
}

// drain empties whatever is still queued at shutdown so no accepted line is
// lost to the close.
func (w *AsyncFileWriter) drain() {
	for {
		select {
		case line := <-w.queue:
			w.append(line)
		default:
			return
		}
	}
}

func (w *AsyncFileWriter) append(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.writer.Write(line); err != nil {
		fmt.Fprintln(os.Stderr, "log file write failed:", err)
	}
}

func (w *AsyncFileWriter) flushBuffer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n := w.dropped.Swap(0); n > 0 {
		fmt.Fprintf(w.writer, "{\"level\":\"warning\",\"msg\":\"log queue overflow, %d entries dropped\"}\n", n)
	}
	_ = w.writer.Flush()
}

// Close stops the writer after draining the queue and flushing the buffer.
func (w *AsyncFileWriter) Close() error {
	var err error
	w.closed.Do(func() {
		close(w.done)
		<-w.drained
		err = w.file.Close()
	})
	return err
}
