package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		duration  float64
		influence float64
		want      string
	}{
		{"simple", "door slam", 1.5, 0.7, "door_slam_1.50_0.70.wav"},
		{"keeps safe punctuation", "a-b_c", 2, 1, "a-b_c_2.00_1.00.wav"},
		{"replaces separators", "x/y\\z:w", 0.25, 0.333, "x_y_z_w_0.25_0.33.wav"},
		{"truncates", strings.Repeat("a", 80), 1, 0.5, strings.Repeat("a", 50) + "_1.00_0.50.wav"},
		{"unicode letters", "café", 1, 0.5, "café_1.00_0.50.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.prompt, tt.duration, tt.influence, "wav"); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocal_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	local := NewLocal(dir)

	path, err := local.Save(context.Background(), "a_1.00_0.50.wav", []byte("one"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != filepath.Join(dir, "a_1.00_0.50.wav") {
		t.Errorf("path = %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "one" {
		t.Errorf("file content = %q, %v", got, err)
	}
}

func TestLocal_SaveCollisions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.wav"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	local := NewLocal(dir)

	first, err := local.Save(context.Background(), "a.wav", []byte("1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := local.Save(context.Background(), "a.wav", []byte("2"))
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(first) != "a_1.wav" || filepath.Base(second) != "a_2.wav" {
		t.Errorf("paths = %q, %q, want a_1.wav, a_2.wav", first, second)
	}
	existing, _ := os.ReadFile(filepath.Join(dir, "a.wav"))
	if string(existing) != "existing" {
		t.Error("existing file was overwritten")
	}
}

func TestLocal_SaveConcurrent(t *testing.T) {
	local := NewLocal(t.TempDir())

	const n = 8
	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := local.Save(context.Background(), "same.wav", []byte{byte(i)})
			if err != nil {
				t.Errorf("Save failed: %v", err)
			}
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			t.Errorf("duplicate path %q", p)
		}
		seen[p] = true
	}
}

func TestLocal_SaveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(t.TempDir()).Save(ctx, "a.wav", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is a thread-safe in-memory S3 backend.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Bucket+"/"+*in.Key] = data
	if in.ContentType != nil {
		m.types[*in.Bucket+"/"+*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror_Save(t *testing.T) {
	mock := newMockS3()
	mirror := NewS3Mirror(mock, "sfx", "/renders/")

	uri, err := mirror.Save(context.Background(), filepath.Join("out", "door_1.00_0.50.wav"), []byte("RIFF"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if uri != "s3://sfx/renders/door_1.00_0.50.wav" {
		t.Errorf("uri = %q", uri)
	}
	if !bytes.Equal(mock.objects["sfx/renders/door_1.00_0.50.wav"], []byte("RIFF")) {
		t.Errorf("objects = %v", mock.objects)
	}
	if mock.types["sfx/renders/door_1.00_0.50.wav"] != "audio/wav" {
		t.Error("content type should be audio/wav")
	}
}

func TestS3Mirror_NoPrefix(t *testing.T) {
	mock := newMockS3()
	uri, err := NewS3Mirror(mock, "sfx", "").Save(context.Background(), "a.wav", nil)
	if err != nil {
		t.Fatal(err)
	}
	if uri != "s3://sfx/a.wav" {
		t.Errorf("uri = %q", uri)
	}
}

func TestS3Mirror_Error(t *testing.T) {
	mock := newMockS3()
	mock.putErr = &apiError{code: "AccessDenied", msg: "denied"}

	_, err := NewS3Mirror(mock, "sfx", "").Save(context.Background(), "a.wav", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "AccessDenied") {
		t.Errorf("error %q should carry the service error code", err.Error())
	}
}
