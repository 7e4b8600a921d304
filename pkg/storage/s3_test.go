package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// fakeS3 keeps objects in a map and can be told to fail any operation.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]error // op name -> injected error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), fail: make(map[string]error)}
}

func (f *fakeS3) put(key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte(data)
}

func (f *fakeS3) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type s3Err struct{ code string }

func (e *s3Err) Error() string                 { return e.code }
func (e *s3Err) ErrorCode() string             { return e.code }
func (e *s3Err) ErrorMessage() string          { return e.code }
func (e *s3Err) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := f.fail["get"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3Err{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := f.fail["put"]; err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := f.fail["delete"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if err := f.fail["head"]; err != nil {
		return nil, err
	}
	if !f.has(*in.Key) {
		return nil, &s3Err{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Roundtrip(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "recordings", "")
	ctx := context.Background()

	w, err := store.Write(ctx, "room/rec.ogg")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "audio")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := store.Read(ctx, "room/rec.ogg")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "audio" {
		t.Fatalf("read back %q", got)
	}
}

func TestS3ReadMissing(t *testing.T) {
	store := NewS3(newFakeS3(), "b", "")
	_, err := store.Read(context.Background(), "nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestS3ReadTransportError(t *testing.T) {
	fake := newFakeS3()
	fake.fail["get"] = errors.New("timeout")
	store := NewS3(fake, "b", "")
	_, err := store.Read(context.Background(), "x")
	if err == nil || errors.Is(err, os.ErrNotExist) {
		t.Fatalf("transport error must not look like a missing key: %v", err)
	}
}

func TestS3Exists(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "b", "")
	ctx := context.Background()

	if ok, err := store.Exists(ctx, "k"); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	fake.put("k", "v")
	if ok, err := store.Exists(ctx, "k"); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}

	fake.fail["head"] = errors.New("denied")
	if _, err := store.Exists(ctx, "k"); err == nil {
		t.Fatal("expected head error to propagate")
	}
}

func TestS3Delete(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "b", "")
	ctx := context.Background()

	// S3 delete of a missing key succeeds.
	if err := store.Delete(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}

	fake.put("k", "v")
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if fake.has("k") {
		t.Fatal("object still present after delete")
	}
}

func TestS3UploadFailureSurfacesOnClose(t *testing.T) {
	fake := newFakeS3()
	fake.fail["put"] = errors.New("upload failed")
	store := NewS3(fake, "b", "")

	w, err := store.Write(context.Background(), "obj")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "data") // may or may not reach the pipe
	if err := w.Close(); err == nil || err.Error() != "upload failed" {
		t.Fatalf("Close() = %v, want upload failed", err)
	}
}

func TestS3Prefix(t *testing.T) {
	fake := newFakeS3()
	store := NewS3(fake, "b", "bots/support")
	ctx := context.Background()

	w, err := store.Write(ctx, "rec.ogg")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "x")
	w.Close()

	if !fake.has("bots/support/rec.ogg") {
		t.Fatal("object not stored under prefix")
	}
	if got := NewS3(fake, "b", "").key("a/b"); got != "a/b" {
		t.Fatalf("bare key = %q", got)
	}
}

func TestNotFoundClassification(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want bool
	}{
		{&s3Err{code: "NoSuchKey"}, true},
		{&s3Err{code: "NotFound"}, true},
		{&s3Err{code: "AccessDenied"}, false},
		{errors.New("timeout"), false},
		{nil, false},
	} {
		if got := notFound(tt.err); got != tt.want {
			t.Errorf("notFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
