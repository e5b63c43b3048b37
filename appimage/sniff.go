package appimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	ico "github.com/ur65/go-ico"
)

// MaxScanSize caps how much of a binary the sniffer reads. AppImages can be
// hundreds of megabytes; embedded launcher icons sit in the runtime header
// region in practice, but the whole budget is still cheap to scan.
const MaxScanSize = 256 * 1024 * 1024

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// embeddedImage is one decodable image found inside a binary.
type embeddedImage struct {
	offset int64
	data   []byte // raw PNG bytes, possibly re-encoded from ICO
	width  int
	height int
}

func (e *embeddedImage) area() int {
	return e.width * e.height
}

// SniffIcon scans a binary for embedded PNG and ICO resources and writes the
// largest one found as a PNG file into destDir. Returns an empty path and
// nil error when the binary contains no recognizable image.
func SniffIcon(path, destDir string) (string, error) {
	data, err := readCapped(path, MaxScanSize)
	if err != nil {
		return "", err
	}

	best := bestEmbeddedImage(data)
	if best == nil {
		return "", nil
	}

	dest := filepath.Join(destDir, "sniffed-icon.png")
	if err := os.WriteFile(dest, best.data, 0644); err != nil {
		return "", fmt.Errorf("writing sniffed icon: %w", err)
	}
	return dest, nil
}

func bestEmbeddedImage(data []byte) *embeddedImage {
	var best *embeddedImage
	for _, img := range append(findPNGs(data), findICOs(data)...) {
		if best == nil || img.area() > best.area() {
			best = img
		}
	}
	return best
}

// findPNGs locates PNG signatures and walks the chunk structure to the IEND
// chunk, keeping ranges that decode cleanly.
func findPNGs(data []byte) []*embeddedImage {
	var found []*embeddedImage

	offset := 0
	for {
		idx := bytes.Index(data[offset:], pngSignature)
		if idx < 0 {
			break
		}
		start := offset + idx

		if end, ok := pngEnd(data[start:]); ok {
			candidate := data[start : start+end]
			if cfg, err := png.DecodeConfig(bytes.NewReader(candidate)); err == nil {
				if _, err := png.Decode(bytes.NewReader(candidate)); err == nil {
					found = append(found, &embeddedImage{
						offset: int64(start),
						data:   candidate,
						width:  cfg.Width,
						height: cfg.Height,
					})
					offset = start + end
					continue
				}
			}
		}
		offset = start + len(pngSignature)
	}
	return found
}

// pngEnd walks PNG chunks from the start of a signature and returns the byte
// length of the complete stream (through the IEND chunk), or false when the
// chunk structure runs off the end of the data.
func pngEnd(data []byte) (int, bool) {
	pos := len(pngSignature)
	for {
		if pos+8 > len(data) {
			return 0, false
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		chunkType := string(data[pos+4 : pos+8])

		// length + type + data + crc
		next := pos + 12 + int(length)
		if length > 1<<30 || next > len(data) {
			return 0, false
		}
		if chunkType == "IEND" {
			return next, true
		}
		pos = next
	}
}

// findICOs probes ICONDIR headers (reserved=0, type=1, sane image count)
// and keeps ranges go-ico can decode, re-encoded as PNG.
func findICOs(data []byte) []*embeddedImage {
	var found []*embeddedImage

	for offset := 0; offset+6 <= len(data); offset++ {
		if data[offset] != 0 || data[offset+1] != 0 ||
			data[offset+2] != 1 || data[offset+3] != 0 {
			continue
		}
		count := int(binary.LittleEndian.Uint16(data[offset+4 : offset+6]))
		if count == 0 || count > 64 {
			continue
		}
		if !icoDirectoryPlausible(data[offset:], count) {
			continue
		}

		imgs, err := ico.Decode(bytes.NewReader(data[offset:]))
		if err != nil || len(imgs) == 0 {
			continue
		}

		largest := largestImage(imgs)
		var buf bytes.Buffer
		if err := png.Encode(&buf, largest); err != nil {
			continue
		}
		bounds := largest.Bounds()
		found = append(found, &embeddedImage{
			offset: int64(offset),
			data:   buf.Bytes(),
			width:  bounds.Dx(),
			height: bounds.Dy(),
		})

		// Skip past the directory so overlapping probes of the same icon
		// are not repeated.
		offset += 6 + count*16 - 1
	}
	return found
}

// icoDirectoryPlausible cheaply validates ICONDIR entries before paying for
// a full decode. The 00 00 01 00 header pattern is common in arbitrary
// binary data, so nearly all probes are rejected here.
func icoDirectoryPlausible(data []byte, count int) bool {
	dirSize := 6 + count*16
	if dirSize > len(data) {
		return false
	}
	for i := 0; i < count; i++ {
		entry := data[6+i*16 : 6+(i+1)*16]
		if entry[3] != 0 { // reserved byte
			return false
		}
		size := binary.LittleEndian.Uint32(entry[8:12])
		dataOffset := binary.LittleEndian.Uint32(entry[12:16])
		if size == 0 || dataOffset < uint32(dirSize) {
			return false
		}
		if int64(dataOffset)+int64(size) > int64(len(data)) {
			return false
		}
	}
	return true
}

func largestImage(imgs []image.Image) image.Image {
	best := imgs[0]
	for _, img := range imgs[1:] {
		if area(img) > area(best) {
			best = img
		}
	}
	return best
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// readCapped reads at most limit bytes of a file.
func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size > limit {
		size = limit
	}

	data := make([]byte, size)
	n, err := io.ReadFull(f, data)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return data[:n], nil
}
