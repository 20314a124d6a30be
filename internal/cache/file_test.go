package cache

import (
	"os"
	"testing"
	"time"
)

func TestSetGetFresh(t *testing.T) {
	c, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set("https://example.com/catalog.yaml", &Entry{Body: []byte("version: 1.4.0"), ETag: `"abc"`}); err != nil {
		t.Fatal(err)
	}

	e, fresh := c.Get("https://example.com/catalog.yaml")
	if e == nil || !fresh {
		t.Fatalf("Get = %v, fresh %v; want fresh entry", e, fresh)
	}
	if string(e.Body) != "version: 1.4.0" || e.ETag != `"abc"` {
		t.Errorf("entry = %+v", e)
	}
}

func TestExpiredEntryReturnedStale(t *testing.T) {
	c, err := New(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set("k", &Entry{Body: []byte("x"), ETag: `"v1"`}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	e, fresh := c.Get("k")
	if e == nil {
		t.Fatal("expired entry should still be returned for revalidation")
	}
	if fresh {
		t.Error("entry older than the TTL reported fresh")
	}

	if err := c.Touch("k"); err != nil {
		t.Fatal(err)
	}
	if _, fresh := c.Get("k"); !fresh {
		t.Error("touched entry should be fresh")
	}
}

func TestMissingAndCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if e, _ := c.Get("missing"); e != nil {
		t.Errorf("Get(missing) = %+v", e)
	}
	if err := c.Touch("missing"); err == nil {
		t.Error("Touch(missing) should fail")
	}

	if err := os.WriteFile(c.path("corrupt"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e, _ := c.Get("corrupt"); e != nil {
		t.Error("corrupt entry should be discarded")
	}
	if _, err := os.Stat(c.path("corrupt")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed from disk")
	}
}

func TestDelete(t *testing.T) {
	c, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set("k", &Entry{Body: []byte("x")})

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if e, _ := c.Get("k"); e != nil {
		t.Error("entry survived Delete")
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("deleting a missing entry: %v", err)
	}
}
