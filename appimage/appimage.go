// Package appimage inspects AppImages and generic Linux executables and
// extracts embedded icons from them.
package appimage

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"
)

// Kind classifies an executable file.
type Kind int

const (
	// KindUnknown is a file that is neither ELF nor AppImage.
	KindUnknown Kind = iota
	// KindELF is a plain ELF executable.
	KindELF
	// KindAppImageType1 is a legacy ISO9660-based AppImage.
	KindAppImageType1
	// KindAppImageType2 is a squashfs-based AppImage.
	KindAppImageType2
)

// String returns a short human-readable label.
func (k Kind) String() string {
	switch k {
	case KindELF:
		return "ELF executable"
	case KindAppImageType1:
		return "AppImage (type 1)"
	case KindAppImageType2:
		return "AppImage (type 2)"
	default:
		return "unknown"
	}
}

// IsAppImage reports whether the kind is either AppImage type.
func (k Kind) IsAppImage() bool {
	return k == KindAppImageType1 || k == KindAppImageType2
}

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// DetectKind classifies a file by its magic bytes. AppImages are ELF files
// carrying the AI marker at offset 8 (0x41 0x49, then the type byte).
func DetectKind(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	header := make([]byte, 11)
	n, err := f.Read(header)
	if err != nil || n < len(header) {
		return KindUnknown, nil
	}

	if !bytes.Equal(header[:4], elfMagic) {
		return KindUnknown, nil
	}

	if header[8] == 'A' && header[9] == 'I' {
		switch header[10] {
		case 0x01:
			return KindAppImageType1, nil
		case 0x02:
			return KindAppImageType2, nil
		}
	}
	return KindELF, nil
}

// Info describes a probed executable.
type Info struct {
	Kind Kind
	Arch string
	Size int64
}

// Probe returns kind, architecture, and size for an executable. The
// architecture comes from the ELF header; non-ELF files report an empty
// arch.
func Probe(path string) (*Info, error) {
	info := &Info{}

	kind, err := DetectKind(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	info.Kind = kind

	if st, err := os.Stat(path); err == nil {
		info.Size = st.Size()
	}

	if kind == KindUnknown {
		return info, nil
	}

	ef, err := elf.Open(path)
	if err != nil {
		// AppImage runtimes are still ELF, but be tolerant of truncated
		// or exotic headers.
		return info, nil
	}
	defer ef.Close()

	switch ef.Machine {
	case elf.EM_386:
		info.Arch = "386"
	case elf.EM_X86_64:
		info.Arch = "amd64"
	case elf.EM_ARM:
		info.Arch = "arm"
	case elf.EM_AARCH64:
		info.Arch = "arm64"
	default:
		info.Arch = ef.Machine.String()
	}
	return info, nil
}
