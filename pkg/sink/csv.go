package sink

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// CSVSink writes one record line per event to a buffered writer
type CSVSink struct {
	mu             sync.Mutex
	w              *bufio.Writer
	closer         io.Closer
	energyDecimals int
	lines          int
}

// NewCSVSink creates a sink writing to w. If w is an io.Closer, Close closes it.
func NewCSVSink(w io.Writer, energyDecimals int) *CSVSink {
	s := &CSVSink{
		w:              bufio.NewWriter(w),
		energyDecimals: energyDecimals,
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// WriteHeader writes the field names as the first line
func (s *CSVSink) WriteHeader() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, FormatHeader())
	return err
}

// Record writes one event
func (s *CSVSink) Record(e integrator.RayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(FormatEvent(e, s.energyDecimals)); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	s.lines++
	return nil
}

// Lines returns the number of events written
func (s *CSVSink) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Flush writes any buffered data to the underlying writer
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Close flushes and closes the underlying writer if it can be closed
func (s *CSVSink) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
