package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
)

// createTestStore creates an in-memory SQLite store for testing
func createTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func blank(w, h int) []byte {
	return make([]byte, (w+7)/8*h)
}

func TestNewStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create file-based store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Add(ctx, "a", 8, 1, []byte{0xff}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_ = store.Close()

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestStore_AddListRemove(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		if _, err := store.Add(ctx, name, 128, 64, blank(128, 64)); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}

	images, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("got %d images, want 3", len(images))
	}
	for i, want := range []string{"one", "two", "three"} {
		if images[i].Name != want {
			t.Errorf("images[%d] = %s, want %s", i, images[i].Name, want)
		}
	}
	if images[0].Size() != 1024 {
		t.Errorf("Size = %d, want 1024", images[0].Size())
	}

	if err := store.Remove(ctx, "two"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "two"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestStore_AddDuplicate(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "logo", 8, 1, []byte{1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(ctx, "logo", 8, 1, []byte{2}); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Add = %v, want ErrExists", err)
	}
}

func TestStore_AddWrongSize(t *testing.T) {
	store := createTestStore(t)
	if _, err := store.Add(context.Background(), "bad", 128, 64, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected size error")
	}
}

func TestStore_BitmapsFiltersSize(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "small", 8, 2, []byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	full := blank(128, 64)
	full[0] = 0x80
	if _, err := store.Add(ctx, "full", 128, 64, full); err != nil {
		t.Fatal(err)
	}

	bitmaps, err := store.Bitmaps(ctx, 128, 64)
	if err != nil {
		t.Fatalf("Bitmaps: %v", err)
	}
	if len(bitmaps) != 1 || bitmaps[0][0] != 0x80 {
		t.Errorf("Bitmaps = %d entries, want only the 128x64 one", len(bitmaps))
	}
}

func TestConvert_Threshold(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 2))
	src.SetGray(0, 0, color.Gray{Y: 0xff})
	src.SetGray(9, 0, color.Gray{Y: 0x90})
	src.SetGray(1, 1, color.Gray{Y: 0x70}) // below threshold

	got := Convert(src, 10, 2)
	want := []byte{0x80, 0x40, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Convert = % x, want % x", got, want)
	}

	back := Expand(got, 10, 2)
	if back.GrayAt(9, 0).Y != 0xff || back.GrayAt(1, 1).Y != 0 {
		t.Error("Expand does not mirror Convert")
	}
}

func TestDecode_ScalesPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 256, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 256; x++ {
			src.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	bitmap, err := Decode(&buf, 128, 64)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(bitmap) != 1024 {
		t.Fatalf("len = %d, want 1024", len(bitmap))
	}
	for i, b := range bitmap {
		if b != 0xff {
			t.Fatalf("byte %d = %#x, want all lit", i, b)
		}
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("nope")), 128, 64); err == nil {
		t.Fatal("expected decode error")
	}
}
