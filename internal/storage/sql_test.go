package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestSQL(t *testing.T) *SQLKV {
	t.Helper()
	kv, err := OpenSQL("sqlite3", filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLKVPutAndGet(t *testing.T) {
	kv := openTestSQL(t)
	ctx := context.Background()

	if _, err := kv.Get(ctx, "p1", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	if err := kv.PutAll(ctx, "p1", []Record{{Key: "k", Value: []byte("one")}, {Key: "j", Value: []byte("x")}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.PutAll(ctx, "p1", []Record{{Key: "k", Value: []byte("two")}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := kv.Get(ctx, "p1", "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("expected upserted value, got %q err=%v", got, err)
	}
	if _, err := kv.Get(ctx, "p2", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("records leaked across players: %v", err)
	}
}

func TestGatewayOverSQLite(t *testing.T) {
	gw := newTestGateway(openTestSQL(t), 1)
	want := sampleState(t)

	gw.Save("player-a", want)
	got, found, err := gw.Load(context.Background(), "player-a")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestOpenMemoryDriver(t *testing.T) {
	kv, err := Open("memory", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := kv.(*MemoryKV); !ok {
		t.Fatalf("expected MemoryKV got %T", kv)
	}
}
