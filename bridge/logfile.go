package bridge

import (
	"fmt"
	"io"
	"os"
	"time"

	simbridge "github.com/wippyai/simbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logTimeLayout = "2006-01-02 15:04:05"
	logBufferSize = 64 << 10
)

// LogFile is the host-side log: a truncated file with a banner header, a
// level filter, and a flush on every Error or Warning entry. When the file
// cannot be opened it writes to stderr instead.
type LogFile struct {
	logger   *zap.Logger
	level    zap.AtomicLevel
	buffered *zapcore.BufferedWriteSyncer
	file     *os.File
	path     string
	fallback bool
}

// LogFileOption configures OpenLogFile.
type LogFileOption func(*logFileOptions)

type logFileOptions struct {
	stderr io.Writer
	now    func() time.Time
}

// WithStderr replaces the fallback writer.
func WithStderr(w io.Writer) LogFileOption {
	return func(o *logFileOptions) { o.stderr = w }
}

// WithClock replaces the clock used for the header and entries.
func WithClock(now func() time.Time) LogFileOption {
	return func(o *logFileOptions) { o.now = now }
}

// OpenLogFile truncates path and writes the header. It never fails: on an
// open error a single warning goes to stderr and logging continues there.
func OpenLogFile(path string, level Level, opts ...LogFileOption) *LogFile {
	o := logFileOptions{stderr: os.Stderr, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	lf := &LogFile{
		path:  path,
		level: zap.NewAtomicLevelAt(level.ZapLevel()),
	}

	var ws zapcore.WriteSyncer
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(o.stderr, "WARNING: Failed to open log file '%s'. Redirecting all logging to stderr.\n", path)
		lf.fallback = true
		// stderr may not support Sync
		ws = zapcore.AddSync(struct{ io.Writer }{o.stderr})
	} else {
		lf.file = f
		writeHeader(f, o.now())
		lf.buffered = &zapcore.BufferedWriteSyncer{
			WS:            f,
			Size:          logBufferSize,
			FlushInterval: time.Hour,
		}
		ws = lf.buffered
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(logTimeLayout),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(ws), lf.level)
	lf.logger = zap.New(&flushCore{Core: core}, zap.WithClock(clock{o.now}))
	return lf
}

func writeHeader(w io.Writer, now time.Time) {
	fmt.Fprintf(w, "========================================\n")
	fmt.Fprintf(w, "simbridge: simulation callback bridge\n")
	fmt.Fprintf(w, "Version: %s\n", simbridge.Version)
	fmt.Fprintf(w, "Started: %s\n", now.Format(logTimeLayout))
	fmt.Fprintf(w, "========================================\n\n")
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(FromZap(l).String())
}

// Logger returns the zap logger writing to the log.
func (lf *LogFile) Logger() *zap.Logger { return lf.logger }

// Sink returns a Sink writing call entries to the log.
func (lf *LogFile) Sink() Sink { return NewZapSink(lf.logger) }

// Path returns the requested file path.
func (lf *LogFile) Path() string { return lf.path }

// Fallback reports whether the log is going to stderr.
func (lf *LogFile) Fallback() bool { return lf.fallback }

// SetLevel changes the filter. Invalid levels leave it unchanged.
func (lf *LogFile) SetLevel(l Level) {
	if l.Valid() {
		lf.level.SetLevel(l.ZapLevel())
	}
}

// Level returns the current filter level.
func (lf *LogFile) Level() Level { return FromZap(lf.level.Level()) }

// Close flushes buffered entries and closes the file.
func (lf *LogFile) Close() error {
	if lf.buffered != nil {
		if err := lf.buffered.Stop(); err != nil {
			return err
		}
	}
	if lf.file != nil {
		return lf.file.Close()
	}
	return nil
}

// flushCore syncs after every Warn or Error entry and leaves Info and
// Debug in the buffer.
type flushCore struct {
	zapcore.Core
}

func (c *flushCore) With(fields []zapcore.Field) zapcore.Core {
	return &flushCore{Core: c.Core.With(fields)}
}

func (c *flushCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *flushCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	if err := c.Core.Write(e, fields); err != nil {
		return err
	}
	if e.Level >= zapcore.WarnLevel {
		return c.Core.Sync()
	}
	return nil
}

type clock struct {
	now func() time.Time
}

func (c clock) Now() time.Time { return c.now() }

func (c clock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
