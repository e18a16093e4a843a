// Package testutil provides fixtures and testify mocks for the converter's
// interfaces (codec.Codec, converter.Hooks).
package testutil

import (
	"io"
	"sync"
	"time"

	"github.com/stackvity/webp-converter/pkg/converter"
	"github.com/stackvity/webp-converter/pkg/converter/codec"
	"github.com/stretchr/testify/mock"
)

// MockCodec provides a mock implementation of codec.Codec.
// Configure expectations with .On("Decode", ...) and .On("Encode", ...).
type MockCodec struct {
	mock.Mock
}

// Decode mocks the Decode method. The reader is passed to the expectation as-is.
func (m *MockCodec) Decode(r io.Reader) (*codec.PixelBuffer, error) {
	args := m.Called(r)
	buf, _ := args.Get(0).(*codec.PixelBuffer)
	return buf, args.Error(1)
}

// Encode mocks the Encode method.
func (m *MockCodec) Encode(buf *codec.PixelBuffer, quality float32, lossless bool) ([]byte, error) {
	args := m.Called(buf, quality, lossless)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// MockHooks provides a mock implementation of converter.Hooks.
// Hooks are called concurrently by workers; testify's mock is internally locked.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report converter.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// RecordingHooks is a thread-safe converter.Hooks that records every call.
type RecordingHooks struct {
	mu         sync.Mutex
	Discovered []string
	Statuses   map[string][]converter.Status
	Reports    []converter.Report
}

// OnFileDiscovered implements converter.Hooks.
func (h *RecordingHooks) OnFileDiscovered(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Discovered = append(h.Discovered, path)
	return nil
}

// OnFileStatusUpdate implements converter.Hooks.
func (h *RecordingHooks) OnFileStatusUpdate(path string, status converter.Status, _ string, _ time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Statuses == nil {
		h.Statuses = make(map[string][]converter.Status)
	}
	h.Statuses[path] = append(h.Statuses[path], status)
	return nil
}

// OnRunComplete implements converter.Hooks.
func (h *RecordingHooks) OnRunComplete(report converter.Report) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Reports = append(h.Reports, report)
	return nil
}

// FinalStatus returns the last status recorded for path.
func (h *RecordingHooks) FinalStatus(path string) converter.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.Statuses[path]
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
