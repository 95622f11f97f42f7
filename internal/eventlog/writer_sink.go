package eventlog

import (
	"context"
	"fmt"
	"io"
)

// WriterSink adapts an io.Writer (stdout, a log file) into a Sink, for
// callers that drive the engine outside of a host process and have no
// platform event log to write into.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink builds a WriterSink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write implements Sink.
func (s *WriterSink) Write(_ context.Context, severity Severity, chunk string) error {
	prefix := "TRACE"
	if severity == SeverityError {
		prefix = "ERROR"
	}
	_, err := fmt.Fprintf(s.w, "[%s] %s\n", prefix, chunk)
	return err
}
