package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/phayes/permbits"
	"github.com/rs/zerolog"
)

// ProgressCallback reports install progress.
// percent is 0-100; stage is a short human-readable description.
type ProgressCallback func(percent int, stage string)

// Result describes where install artifacts ended up.
type Result struct {
	Slug       string
	BinaryPath string
	IconPath   string
	EntryPath  string
	SystemWide bool
}

// Installer performs install operations against a set of Locations. One
// install runs at a time; concurrent attempts fail with
// ErrInstallInProgress.
type Installer struct {
	locations  Locations
	lockPath   string
	onProgress ProgressCallback
	log        zerolog.Logger

	// elevate runs a command with elevated privileges for system-wide
	// installs. Overridable for tests; defaults to pkexec.
	elevate func(ctx context.Context, name string, args ...string) error
}

// New creates an Installer targeting the given locations.
func New(locations Locations) *Installer {
	return &Installer{
		locations: locations,
		lockPath:  filepath.Join(os.TempDir(), "program-installer.lock"),
		log:       zerolog.Nop(),
		elevate:   runElevated,
	}
}

// SetProgressCallback sets the progress callback.
func (in *Installer) SetProgressCallback(cb ProgressCallback) {
	in.onProgress = cb
}

// SetLogger sets the operation logger.
func (in *Installer) SetLogger(log zerolog.Logger) {
	in.log = log
}

// SetLockPath overrides the serialization lock file location.
func (in *Installer) SetLockPath(path string) {
	in.lockPath = path
}

func (in *Installer) progress(percent int, stage string) {
	if in.onProgress != nil {
		in.onProgress(percent, stage)
	}
}

// Install validates the request and performs the install: copy the binary,
// place the icon, write the desktop entry, refresh the desktop database.
// A pre-existing entry with the same slug is overwritten without
// confirmation. There is no rollback; a failed install is reported and can
// be retried once the cause is fixed.
func (in *Installer) Install(ctx context.Context, req *InstallRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lock := flock.New(in.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring install lock: %w", err)
	}
	if !locked {
		return nil, ErrInstallInProgress
	}
	defer lock.Unlock()

	slug := req.Slug()
	res := &Result{
		Slug:       slug,
		BinaryPath: filepath.Join(in.locations.BinDir, req.BinaryName()),
		EntryPath:  in.locations.EntryPath(slug),
		SystemWide: in.locations.SystemWide,
	}

	in.log.Info().
		Str("source", req.SourcePath).
		Str("name", req.DisplayName).
		Str("slug", slug).
		Bool("system_wide", in.locations.SystemWide).
		Msg("starting install")

	if err := in.locations.EnsureDirs(); err != nil {
		return nil, err
	}
	in.progress(20, "Copying executable")

	if err := in.installBinary(ctx, req.SourcePath, res.BinaryPath); err != nil {
		return nil, fmt.Errorf("installing executable: %w", err)
	}
	in.progress(50, "Installing icon")

	iconName := ""
	if req.IconPath != "" {
		res.IconPath = in.locations.IconPath(slug)
		if err := in.installFile(ctx, req.IconPath, res.IconPath, 0644); err != nil {
			return nil, fmt.Errorf("installing icon: %w", err)
		}
		iconName = slug
	}
	in.progress(70, "Writing desktop entry")

	entry := &DesktopEntry{
		Name:       req.DisplayName,
		Exec:       res.BinaryPath,
		Icon:       iconName,
		Comment:    req.Description,
		Categories: []string{req.NormalizedCategory()},
		Keywords:   req.Keywords,
	}
	if err := in.writeEntry(ctx, entry, res.EntryPath); err != nil {
		return nil, fmt.Errorf("writing desktop entry: %w", err)
	}
	in.progress(90, "Refreshing desktop database")

	in.refreshDesktopDatabase(ctx)
	in.progress(100, "Done")

	in.log.Info().Str("entry", res.EntryPath).Msg("install complete")
	return res, nil
}

// installBinary copies the source executable into place and sets the
// executable permission bits.
func (in *Installer) installBinary(ctx context.Context, src, dest string) error {
	if in.locations.SystemWide {
		if err := in.elevate(ctx, "cp", src, dest); err != nil {
			return err
		}
		return in.elevate(ctx, "chmod", "755", dest)
	}

	if err := copyFile(src, dest, 0755); err != nil {
		return err
	}

	bits, err := permbits.Stat(dest)
	if err != nil {
		return err
	}
	bits.SetUserExecute(true)
	bits.SetGroupExecute(true)
	bits.SetOtherExecute(true)
	return permbits.Chmod(dest, bits)
}

func (in *Installer) installFile(ctx context.Context, src, dest string, mode os.FileMode) error {
	if in.locations.SystemWide {
		return in.elevate(ctx, "cp", src, dest)
	}
	return copyFile(src, dest, mode)
}

func (in *Installer) writeEntry(ctx context.Context, entry *DesktopEntry, dest string) error {
	if !in.locations.SystemWide {
		return entry.WriteFile(dest)
	}

	// Elevated write: stage in a temp file and copy it into place.
	tmp, err := os.CreateTemp("", "desktop-entry-*.desktop")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(entry.Encode()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// CreateTemp makes the file 0600 and cp carries the mode over, which
	// would hide a system entry from launchers. Open it up before copying.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	return in.elevate(ctx, "cp", tmpPath, dest)
}

// refreshDesktopDatabase asks the desktop environment to pick up the new
// entry. Best-effort: missing tools are fine, launchers rescan eventually.
func (in *Installer) refreshDesktopDatabase(ctx context.Context) {
	if path, err := exec.LookPath("update-desktop-database"); err == nil {
		if err := exec.CommandContext(ctx, path, in.locations.ApplicationsDir).Run(); err != nil {
			in.log.Debug().Err(err).Msg("update-desktop-database failed")
		}
	}
	if path, err := exec.LookPath("gtk-update-icon-cache"); err == nil {
		hicolor := filepath.Join(in.locations.IconBaseDir, "icons", "hicolor")
		if err := exec.CommandContext(ctx, path, "-q", "-t", hicolor).Run(); err != nil {
			in.log.Debug().Err(err).Msg("gtk-update-icon-cache failed")
		}
	}
}

func runElevated(ctx context.Context, name string, args ...string) error {
	pkexec, err := exec.LookPath("pkexec")
	if err != nil {
		return fmt.Errorf("system-wide install requires pkexec: %w", err)
	}
	cmd := exec.CommandContext(ctx, pkexec, append([]string{name}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, string(out))
	}
	return nil
}

// copyFile copies src to dest with the given mode, truncating dest if it
// exists.
func copyFile(src, dest string, mode os.FileMode) error {
	from, err := os.Open(src)
	if err != nil {
		return err
	}
	defer from.Close()

	to, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(to, from); err != nil {
		to.Close()
		return err
	}
	return to.Close()
}
