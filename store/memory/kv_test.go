package memory

import (
	"context"
	"testing"

	"github.com/R3E-Network/agentsvc/store"
)

func TestKvStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewKvStore()

	if err := s.Put(ctx, "key1", []byte("value1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := s.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "value1" {
		t.Fatalf("expected value1, got %s", data)
	}
}

func TestKvStore_GetMissing(t *testing.T) {
	s := NewKvStore()
	if _, err := s.Get(context.Background(), "missing"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKvStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewKvStore()
	_ = s.Put(ctx, "key1", []byte("v"))

	if err := s.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "key1"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKvStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewKvStore()
	_ = s.Put(ctx, "prefix:a", []byte("1"))
	_ = s.Put(ctx, "prefix:b", []byte("2"))
	_ = s.Put(ctx, "other:c", []byte("3"))

	keys, err := s.List(ctx, "prefix:")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(keys), keys)
	}
}

func TestKvStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewKvStore()

	ok, err := s.CompareAndSwap(ctx, "key", nil, []byte("v1"))
	if err != nil || !ok {
		t.Fatalf("expected initial CAS to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = s.CompareAndSwap(ctx, "key", nil, []byte("v2"))
	if err != nil || ok {
		t.Fatalf("expected CAS against nil to fail once key exists, got ok=%v err=%v", ok, err)
	}

	ok, err = s.CompareAndSwap(ctx, "key", []byte("wrong"), []byte("v2"))
	if err != nil || ok {
		t.Fatalf("expected CAS with mismatched oldValue to fail, got ok=%v err=%v", ok, err)
	}

	ok, err = s.CompareAndSwap(ctx, "key", []byte("v1"), []byte("v2"))
	if err != nil || !ok {
		t.Fatalf("expected CAS with matching oldValue to succeed, got ok=%v err=%v", ok, err)
	}

	data, err := s.Get(ctx, "key")
	if err != nil || string(data) != "v2" {
		t.Fatalf("expected v2, got %s err=%v", data, err)
	}
}

func TestKvStore_IsolatesCallerBuffers(t *testing.T) {
	ctx := context.Background()
	s := NewKvStore()
	buf := []byte("original")
	_ = s.Put(ctx, "key", buf)
	buf[0] = 'X'

	data, _ := s.Get(ctx, "key")
	if string(data) != "original" {
		t.Fatalf("store should not alias caller's buffer, got %s", data)
	}
}
