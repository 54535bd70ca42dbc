package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestFilesystemPutGetRoundTrip(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	payload := []byte("not actually a jpeg")

	info, err := fs.Put(ctx, "producers/p1/photo-1", bytes.NewReader(payload), PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"source": "field"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("put info incomplete: %+v", info)
	}

	got, rc, err := fs.Get(ctx, "producers/p1/photo-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("content mismatch")
	}
	if got.ContentType != "image/jpeg" || got.Metadata["source"] != "field" {
		t.Fatalf("metadata lost: %+v", got)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag changed between put and get")
	}
}

func TestFilesystemPutIsCreateOnly(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	if _, err := fs.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := fs.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
		t.Fatalf("second put should fail")
	}
}

func TestFilesystemRejectsTraversalKeys(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := fs.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestFilesystemDeleteAndList(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"producers/a/photo", "producers/b/photo", "other/doc"} {
		if _, err := fs.Put(ctx, key, strings.NewReader(key), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := fs.List(ctx, "producers/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("list returned %d entries, want 2", len(infos))
	}
	if infos[0].Key > infos[1].Key {
		t.Fatalf("list not sorted by key")
	}

	existed, err := fs.Delete(ctx, "producers/a/photo")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = fs.Delete(ctx, "producers/a/photo")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
}

func TestFilesystemPresignOnlyGet(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	ctx := context.Background()
	url, err := fs.PresignURL(ctx, "k", SignedURLOptions{})
	if err != nil || url == "" {
		t.Fatalf("presign get: url=%q err=%v", url, err)
	}
	if _, err := fs.PresignURL(ctx, "k", SignedURLOptions{Method: "PUT"}); err != ErrUnsupported {
		t.Fatalf("presign put: expected ErrUnsupported, got %v", err)
	}
}
