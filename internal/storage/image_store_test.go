package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func fileHeader(t *testing.T, filename string, payload []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["image"]
	if len(files) != 1 {
		t.Fatalf("expected one file header, got %d", len(files))
	}
	return files[0]
}

func TestImageStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewImageStore(dir, "/static/uploads")

	name, err := store.Save(fileHeader(t, "photo.png", pngBytes(t)))
	if err != nil {
		t.Fatalf("save image: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("expected .png suffix, got %s", name)
	}

	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if got := store.URL(name); got != "/static/uploads/"+name {
		t.Fatalf("unexpected url: %s", got)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err: %v", err)
	}

	// 再次删除不报错
	if err := store.Remove(name); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestImageStore_RejectsNonImage(t *testing.T) {
	store := NewImageStore(t.TempDir(), "/static/uploads")

	if _, err := store.Save(fileHeader(t, "note.txt", []byte("plain text"))); !errors.Is(err, ErrImageUnsupported) {
		t.Fatalf("expected ErrImageUnsupported, got %v", err)
	}
}

func TestImageStore_RejectsOversized(t *testing.T) {
	store := NewImageStore(t.TempDir(), "/static/uploads")

	big := make([]byte, MaxImageSize+1)
	if _, err := store.Save(fileHeader(t, "big.png", big)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}
