package recorder_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/recorder"
	"github.com/huddle01/ai01-go/pkg/storage"
)

func TestRecordToLocalStore(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx := context.Background()
	path := recorder.Path("room-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	rec, err := recorder.New(ctx, store, path, pcm.L16Mono24K)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 130ms: six full frames plus a 10ms tail padded at Close.
	data := make([]byte, pcm.L16Mono24K.BytesInDuration(130*time.Millisecond))
	for i := 0; i < len(data); i += 2 {
		data[i+1] = 0x08
	}
	if err := rec.Write(pcm.L16Mono24K.DataChunk(data)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rc, err := store.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(content) < 4 || string(content[:4]) != "OggS" {
		t.Errorf("not an ogg stream: % x", content[:min(8, len(content))])
	}
}

func TestWriteAfterClose(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	rec, err := recorder.New(context.Background(), store, "a.ogg", pcm.L16Mono16K)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec.Close()

	chunk := pcm.L16Mono16K.SilenceChunk(20 * time.Millisecond)
	if err := rec.Write(chunk); err == nil {
		t.Error("expected error writing to closed recorder")
	}
}

func TestRejectsWrongFormat(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	rec, err := recorder.New(context.Background(), store, "b.ogg", pcm.L16Mono24K)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rec.Close()

	if err := rec.Write(pcm.L16Mono48K.SilenceChunk(20 * time.Millisecond)); err == nil {
		t.Error("expected format mismatch error")
	}
}

func TestPathLayout(t *testing.T) {
	p := recorder.Path("abc-def", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	if p != "recordings/abc-def/20250102T030405Z.ogg" {
		t.Errorf("Path = %q", p)
	}
}
