package installer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexmullins/zip"
)

// ErrNoBackupFiles is returned when a backup is requested with nothing to
// archive.
var ErrNoBackupFiles = errors.New("no files to back up")

// BackupFiles archives the given files into a zip at outputPath, storing
// each under its base name. A non-empty password produces an AES-256
// encrypted archive (WinZip-compatible).
func BackupFiles(files []string, outputPath, password string) error {
	if len(files) == 0 {
		return ErrNoBackupFiles
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating backup archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	for _, file := range files {
		if err := addBackupFile(zw, file, password); err != nil {
			return fmt.Errorf("archiving %s: %w", file, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing backup archive: %w", err)
	}
	return out.Close()
}

func addBackupFile(zw *zip.Writer, path, password string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	name := filepath.Base(path)
	var w io.Writer
	if password != "" {
		w, err = zw.Encrypt(name, password)
	} else {
		w, err = zw.Create(name)
	}
	if err != nil {
		return err
	}

	_, err = io.Copy(w, src)
	return err
}
