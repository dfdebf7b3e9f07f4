package utils

import (
	"io"
	"sync"
)

// Flusher is the optional capability of buffered writers.
type Flusher interface {
	Flush() error
}

// FlushingWriter serializes writes to the wrapped writer and flushes buffered
// output after every write, so streamed deletion reports appear the moment
// each attempt completes.
type FlushingWriter struct {
	mutex          sync.Mutex
	wrappedWriter  io.Writer
	wrappedFlusher Flusher
}

// NewFlushingWriter wraps the provided writer. A writer that is already a
// FlushingWriter is returned unchanged; a nil writer yields nil.
func NewFlushingWriter(outputWriter io.Writer) io.Writer {
	if outputWriter == nil {
		return nil
	}
	if existingWrapper, alreadyWrapped := outputWriter.(*FlushingWriter); alreadyWrapped {
		return existingWrapper
	}

	flushingWriter := &FlushingWriter{wrappedWriter: outputWriter}
	if flushableWriter, supportsFlush := outputWriter.(Flusher); supportsFlush {
		flushingWriter.wrappedFlusher = flushableWriter
	}

	return flushingWriter
}

// Write forwards data to the wrapped writer and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.wrappedWriter == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	writtenByteCount, writeError := flushingWriter.wrappedWriter.Write(data)
	if writeError != nil {
		return writtenByteCount, writeError
	}

	if flushingWriter.wrappedFlusher != nil {
		if flushError := flushingWriter.wrappedFlusher.Flush(); flushError != nil {
			return writtenByteCount, flushError
		}
	}

	return writtenByteCount, nil
}
