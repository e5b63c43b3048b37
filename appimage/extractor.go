package appimage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProgressCallback reports extraction progress as a 0-100 percentage.
type ProgressCallback func(percent int)

// IconExtractor locates and extracts an icon from an AppImage or generic
// executable. Absence of an icon is not an error: Extract returns an empty
// path so installation can fall through to the default system icon.
type IconExtractor struct {
	// Timeout bounds the --appimage-extract child process.
	Timeout time.Duration

	onProgress ProgressCallback
	log        zerolog.Logger
}

// NewIconExtractor creates an extractor with default settings.
func NewIconExtractor() *IconExtractor {
	return &IconExtractor{
		Timeout: 60 * time.Second,
		log:     zerolog.Nop(),
	}
}

// SetProgressCallback sets the progress callback.
func (x *IconExtractor) SetProgressCallback(cb ProgressCallback) {
	x.onProgress = cb
}

// SetLogger sets the operation logger.
func (x *IconExtractor) SetLogger(log zerolog.Logger) {
	x.log = log
}

func (x *IconExtractor) progress(percent int) {
	if x.onProgress != nil {
		x.onProgress(percent)
	}
}

// Extract produces an icon image file for the given executable, or an empty
// path when none can be found. The returned file lives in a fresh temp
// directory owned by the caller; installing it elsewhere copies it anyway.
//
// AppImages are unpacked with their own --appimage-extract runtime option
// and searched for the conventional icon locations. Anything else (and any
// AppImage whose runtime refuses to unpack) is scanned for embedded PNG/ICO
// resources instead.
func (x *IconExtractor) Extract(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("source file: %w", err)
	}

	destDir, err := os.MkdirTemp("", "extracted-icon-")
	if err != nil {
		return "", fmt.Errorf("creating icon directory: %w", err)
	}
	x.progress(10)

	kind, err := DetectKind(path)
	if err != nil {
		os.RemoveAll(destDir)
		return "", err
	}

	if kind.IsAppImage() || strings.HasSuffix(strings.ToLower(path), ".appimage") {
		iconPath, err := x.extractFromAppImage(ctx, path, destDir)
		if err != nil {
			x.log.Warn().Err(err).Str("path", path).Msg("appimage unpack failed, falling back to signature scan")
		} else if iconPath != "" {
			x.progress(100)
			return iconPath, nil
		}
	}

	x.progress(60)
	iconPath, err := SniffIcon(path, destDir)
	if err != nil || iconPath == "" {
		// Nothing ended up in destDir, do not leak it.
		os.RemoveAll(destDir)
		return "", err
	}
	x.progress(100)
	return iconPath, nil
}

// extractFromAppImage unpacks the AppImage into a temp dir via its runtime
// and copies the first icon found in the conventional locations out to
// destDir.
func (x *IconExtractor) extractFromAppImage(ctx context.Context, path, destDir string) (string, error) {
	workDir, err := os.MkdirTemp("", "appimage-unpack-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(workDir)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, absPath, "--appimage-extract")
	cmd.Dir = workDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s --appimage-extract: %w: %s", filepath.Base(path), err, firstLine(out))
	}
	x.progress(40)

	root := filepath.Join(workDir, "squashfs-root")
	iconSource := findIconIn(root)
	if iconSource == "" {
		return "", nil
	}

	dest := filepath.Join(destDir, "extracted-icon"+iconExt(iconSource))
	if err := copyIconFile(iconSource, dest); err != nil {
		return "", err
	}

	x.log.Info().Str("source", iconSource).Str("icon", dest).Msg("icon extracted from appimage")
	return dest, nil
}

// findIconIn searches an unpacked AppImage tree the way desktop integrators
// do: .DirIcon first, then the icon and pixmap directories.
func findIconIn(root string) string {
	candidates := []string{
		filepath.Join(root, ".DirIcon"),
		filepath.Join(root, "usr", "share", "icons"),
		filepath.Join(root, "usr", "share", "pixmaps"),
	}

	for _, candidate := range candidates {
		resolved, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(resolved)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			return resolved
		}
		if found := firstImageFile(resolved); found != "" {
			return found
		}
	}
	return ""
}

// firstImageFile walks a directory tree and returns the first png/svg/xpm
// file found.
func firstImageFile(dir string) string {
	var found string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".svg", ".xpm":
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func iconExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".svg", ".xpm":
		return ext
	default:
		// .DirIcon carries no extension but is a PNG by convention.
		return ".png"
	}
}

func copyIconFile(src, dest string) error {
	from, err := os.Open(src)
	if err != nil {
		return err
	}
	defer from.Close()

	to, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(to, from); err != nil {
		to.Close()
		return err
	}
	return to.Close()
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
