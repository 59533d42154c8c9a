package sink

import (
	"bufio"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ajitpratap0/borealis/pkg/compression"
	"github.com/ajitpratap0/borealis/pkg/config"
	"github.com/ajitpratap0/borealis/pkg/errors"
	stringpool "github.com/ajitpratap0/borealis/pkg/strings"
)

// Transport names accepted by the registry and the sinks config section.
const (
	TransportConsole    = "console"
	TransportFile       = "file"
	TransportCompressed = "compressed"
)

// logHeader opens every file-backed monitoring log.
const logHeader = "Sensor Monitoring Log - "

// headerTimeLayout stamps the log header.
const headerTimeLayout = "2006-01-02 15:04:05"

// Transport carries formatted lines to their destination. Write
// appends exactly one line; Flush pushes buffered output out; Close
// finalizes the destination. Implementations serialize access
// internally.
type Transport interface {
	// Name returns the registry name of the transport.
	Name() string

	// Write appends one formatted line.
	Write(line string) error

	// Flush forces buffered output to the destination.
	Flush() error

	// Close flushes and releases the destination. Write fails afterwards.
	Close() error
}

// TransportFactory builds a transport from its sink config entry.
type TransportFactory func(cfg config.SinkConfig) (Transport, error)

var (
	transportMu        sync.RWMutex
	transportFactories = map[string]TransportFactory{}
)

// RegisterTransport adds a transport factory under a unique name.
func RegisterTransport(name string, factory TransportFactory) error {
	transportMu.Lock()
	defer transportMu.Unlock()

	if _, exists := transportFactories[name]; exists {
		return errors.New(errors.ErrorTypeConfig,
			stringpool.Sprintf("transport %s already registered", name))
	}
	transportFactories[name] = factory
	return nil
}

// NewTransport instantiates the transport named by cfg.Transport.
func NewTransport(cfg config.SinkConfig) (Transport, error) {
	transportMu.RLock()
	factory, exists := transportFactories[cfg.Transport]
	transportMu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound,
			stringpool.Sprintf("transport %s not found", cfg.Transport))
	}
	return factory(cfg)
}

// Transports returns the registered transport names, sorted.
func Transports() []string {
	transportMu.RLock()
	defer transportMu.RUnlock()

	names := make([]string, 0, len(transportFactories))
	for name := range transportFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = RegisterTransport(TransportConsole, func(config.SinkConfig) (Transport, error) {
		return NewConsoleTransport(), nil
	})
	_ = RegisterTransport(TransportFile, func(cfg config.SinkConfig) (Transport, error) {
		return NewFileTransport(cfg.Path)
	})
	_ = RegisterTransport(TransportCompressed, func(cfg config.SinkConfig) (Transport, error) {
		algorithm, err := compression.ParseAlgorithm(cfg.Compression)
		if err != nil {
			return nil, err
		}
		return NewCompressedTransport(cfg.Path, algorithm)
	})
}

// ConsoleTransport writes lines to standard output. A mutex keeps
// concurrent Display calls from interleaving mid-line.
type ConsoleTransport struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleTransport returns a transport over os.Stdout.
func NewConsoleTransport() *ConsoleTransport {
	return &ConsoleTransport{w: os.Stdout}
}

// Name returns the registry name of the transport.
func (t *ConsoleTransport) Name() string { return TransportConsole }

// Write prints one line to the console.
func (t *ConsoleTransport) Write(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.w, stringpool.Concat(line, "\n")); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "console write failed")
	}
	return nil
}

// Flush is a no-op; stdout is unbuffered here.
func (t *ConsoleTransport) Flush() error { return nil }

// Close is a no-op; the process owns stdout.
func (t *ConsoleTransport) Close() error { return nil }

// FileTransport writes lines through a buffered writer into a log file
// created (and truncated) at construction time.
type FileTransport struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// NewFileTransport creates or truncates the log file at path and writes
// the monitoring log header.
func NewFileTransport(path string) (*FileTransport, error) {
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "file transport requires a path")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSinkIO, "creating sink file failed").
			WithDetail("path", path)
	}

	t := &FileTransport{
		path: path,
		file: f,
		w:    bufio.NewWriter(f),
	}
	if err := t.Write(header()); err != nil {
		_ = f.Close()
		return nil, err
	}
	return t, nil
}

// header renders the first line of a file-backed monitoring log.
func header() string {
	return stringpool.Concat(logHeader, time.Now().Format(headerTimeLayout))
}

// Name returns the registry name of the transport.
func (t *FileTransport) Name() string { return TransportFile }

// Path returns the log file location.
func (t *FileTransport) Path() string { return t.path }

// Write appends one line to the buffered log.
func (t *FileTransport) Write(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.New(errors.ErrorTypeSinkIO, "file transport is closed").
			WithDetail("path", t.path)
	}
	if _, err := t.w.WriteString(stringpool.Concat(line, "\n")); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "file write failed").
			WithDetail("path", t.path)
	}
	return nil
}

// Flush pushes buffered lines to the file.
func (t *FileTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	if err := t.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "file flush failed").
			WithDetail("path", t.path)
	}
	return nil
}

// Close flushes and closes the file. Safe to call more than once.
func (t *FileTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	flushErr := t.w.Flush()
	closeErr := t.file.Close()
	if flushErr != nil {
		return errors.Wrap(flushErr, errors.ErrorTypeSinkIO, "file flush on close failed").
			WithDetail("path", t.path)
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, errors.ErrorTypeSinkIO, "file close failed").
			WithDetail("path", t.path)
	}
	return nil
}

// CompressedTransport writes lines into a compression stream that
// drains into a log file. Lines travel through a pipe feeding the
// compressor goroutine, so the on-disk bytes are one continuous
// compressed stream finalized by Close. Flush is a no-op: stream
// compressors only emit complete frames on Close.
type CompressedTransport struct {
	mu        sync.Mutex
	path      string
	algorithm compression.Algorithm
	file      *os.File
	pw        *io.PipeWriter
	done      chan struct{}
	streamErr error
	closed    bool
}

// NewCompressedTransport creates or truncates the log file at path and
// starts the compression stream for the given algorithm.
func NewCompressedTransport(path string, algorithm compression.Algorithm) (*CompressedTransport, error) {
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "compressed transport requires a path")
	}

	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: algorithm,
		Level:     compression.Default,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "building sink compressor failed").
			WithDetail("algorithm", string(algorithm))
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSinkIO, "creating sink file failed").
			WithDetail("path", path)
	}

	pr, pw := io.Pipe()
	t := &CompressedTransport{
		path:      path,
		algorithm: algorithm,
		file:      f,
		pw:        pw,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		if err := comp.CompressStream(f, pr); err != nil {
			t.streamErr = err
			// Unblock writers stuck on the pipe.
			pr.CloseWithError(err)
		}
	}()

	if err := t.Write(header()); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Name returns the registry name of the transport.
func (t *CompressedTransport) Name() string { return TransportCompressed }

// Path returns the log file location.
func (t *CompressedTransport) Path() string { return t.path }

// Algorithm returns the compression algorithm in use.
func (t *CompressedTransport) Algorithm() compression.Algorithm { return t.algorithm }

// Write feeds one line into the compression stream.
func (t *CompressedTransport) Write(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.New(errors.ErrorTypeSinkIO, "compressed transport is closed").
			WithDetail("path", t.path)
	}
	if _, err := t.pw.Write(stringpool.StringToBytes(stringpool.Concat(line, "\n"))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSinkIO, "compressed write failed").
			WithDetail("path", t.path)
	}
	return nil
}

// Flush is a no-op; the compressed stream finalizes on Close.
func (t *CompressedTransport) Flush() error { return nil }

// Close ends the compression stream, waits for the compressor to
// finalize, and closes the file. Safe to call more than once.
func (t *CompressedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	_ = t.pw.Close()
	<-t.done
	closeErr := t.file.Close()

	if t.streamErr != nil {
		return errors.Wrap(t.streamErr, errors.ErrorTypeSinkIO, "compression stream failed").
			WithDetail("path", t.path)
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, errors.ErrorTypeSinkIO, "file close failed").
			WithDetail("path", t.path)
	}
	return nil
}
