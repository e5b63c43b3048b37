package appimage

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 100, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func writeBinaryWith(t *testing.T, chunks ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "binary")
	var data []byte
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}
	if err := os.WriteFile(path, data, 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestSniffIcon tests finding an embedded PNG inside binary junk
func TestSniffIcon(t *testing.T) {
	junk := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 256)
	pngData := encodePNG(t, 32, 32)
	path := writeBinaryWith(t, junk, pngData, junk)

	destDir := t.TempDir()
	iconPath, err := SniffIcon(path, destDir)
	if err != nil {
		t.Fatalf("SniffIcon returned an error: %v", err)
	}
	if iconPath == "" {
		t.Fatal("Expected an icon to be found")
	}
	if filepath.Dir(iconPath) != destDir {
		t.Errorf("Icon written to %s, want %s", filepath.Dir(iconPath), destDir)
	}

	f, err := os.Open(iconPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Sniffed icon is not a valid PNG: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Errorf("Sniffed icon is %dx%d, want 32x32", cfg.Width, cfg.Height)
	}
}

// TestSniffIconPicksLargest tests that the biggest embedded image wins
func TestSniffIconPicksLargest(t *testing.T) {
	small := encodePNG(t, 16, 16)
	large := encodePNG(t, 64, 64)
	junk := bytes.Repeat([]byte{0x42}, 128)
	path := writeBinaryWith(t, junk, small, junk, large, junk)

	iconPath, err := SniffIcon(path, t.TempDir())
	if err != nil {
		t.Fatalf("SniffIcon returned an error: %v", err)
	}
	if iconPath == "" {
		t.Fatal("Expected an icon to be found")
	}

	f, err := os.Open(iconPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 || cfg.Height != 64 {
		t.Errorf("Sniffed icon is %dx%d, want the 64x64 one", cfg.Width, cfg.Height)
	}
}

// TestSniffIconNoImage tests that a binary without images yields no icon and
// no error
func TestSniffIconNoImage(t *testing.T) {
	path := writeBinaryWith(t, bytes.Repeat([]byte{0x00, 0xff, 0x13, 0x37}, 512))

	iconPath, err := SniffIcon(path, t.TempDir())
	if err != nil {
		t.Fatalf("SniffIcon returned an error: %v", err)
	}
	if iconPath != "" {
		t.Errorf("Expected no icon, got %s", iconPath)
	}
}

// TestSniffIconTruncatedPNG tests that a PNG signature without a complete
// chunk structure is ignored
func TestSniffIconTruncatedPNG(t *testing.T) {
	truncated := encodePNG(t, 32, 32)[:40]
	path := writeBinaryWith(t, truncated)

	iconPath, err := SniffIcon(path, t.TempDir())
	if err != nil {
		t.Fatalf("SniffIcon returned an error: %v", err)
	}
	if iconPath != "" {
		t.Errorf("Expected no icon from a truncated PNG, got %s", iconPath)
	}
}

// TestSniffIconMissingFile tests the error path
func TestSniffIconMissingFile(t *testing.T) {
	if _, err := SniffIcon(filepath.Join(t.TempDir(), "gone"), t.TempDir()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

// TestFindPNGsMultiple tests locating several embedded PNG streams
func TestFindPNGsMultiple(t *testing.T) {
	first := encodePNG(t, 8, 8)
	second := encodePNG(t, 24, 24)
	data := append(append(append([]byte("prefix"), first...), []byte("gap")...), second...)

	found := findPNGs(data)
	if len(found) != 2 {
		t.Fatalf("Expected 2 embedded PNGs, got %d", len(found))
	}
	if found[0].width != 8 || found[1].width != 24 {
		t.Errorf("Widths = %d, %d, want 8, 24", found[0].width, found[1].width)
	}
}

// TestIcoDirectoryPlausible tests the cheap ICONDIR precheck
func TestIcoDirectoryPlausible(t *testing.T) {
	// One entry: 16x16, reserved 0, 100 bytes of data right after the
	// directory (6 + 16 = 22).
	valid := make([]byte, 6+16+100)
	valid[2] = 1                                     // type
	binary.LittleEndian.PutUint16(valid[4:6], 1)     // count
	valid[6] = 16                                    // width
	valid[7] = 16                                    // height
	binary.LittleEndian.PutUint32(valid[14:18], 100) // size
	binary.LittleEndian.PutUint32(valid[18:22], 22)  // offset

	if !icoDirectoryPlausible(valid, 1) {
		t.Error("Valid ICONDIR should be plausible")
	}

	// Offset pointing inside the directory is bogus.
	badOffset := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(badOffset[18:22], 4)
	if icoDirectoryPlausible(badOffset, 1) {
		t.Error("Offset inside the directory should be rejected")
	}

	// Data extending past the buffer is bogus.
	badSize := append([]byte{}, valid...)
	binary.LittleEndian.PutUint32(badSize[14:18], 100000)
	if icoDirectoryPlausible(badSize, 1) {
		t.Error("Size past the end of data should be rejected")
	}

	// Non-zero reserved byte is bogus.
	badReserved := append([]byte{}, valid...)
	badReserved[9] = 7
	if icoDirectoryPlausible(badReserved, 1) {
		t.Error("Non-zero reserved byte should be rejected")
	}

	// A directory longer than the data cannot be validated.
	if icoDirectoryPlausible(valid[:10], 1) {
		t.Error("Truncated directory should be rejected")
	}
}
