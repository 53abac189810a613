package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
)

// memoryClient is an in-memory ObjectClient.
type memoryClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	putErr    error
	getErr    error
	removeErr error
	puts      int
	removes   []string
}

func newMemoryClient() *memoryClient {
	return &memoryClient{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryClient) PutObject(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryClient) GetObject(_ context.Context, key string) (*Body, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{StatusCode: 404, Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return ReaderBody(io.NopCloser(bytes.NewReader(data))), nil
}

func (m *memoryClient) RemoveObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes = append(m.removes, key)
	if m.removeErr != nil {
		return m.removeErr
	}
	if _, ok := m.objects[key]; !ok {
		return errors.New("NoSuchKey: object does not exist")
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryClient) CheckConnection(context.Context) error { return nil }

func (m *memoryClient) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type stubScanner struct {
	verdict Verdict
	err     error
	calls   int
}

func (s *stubScanner) Scan(context.Context, []byte) (Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []ImageEvent
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event ImageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return p.err
}
