package installer

import (
	"fmt"
	"os"
	"path/filepath"
)

// IconSize is the hicolor theme size used for installed icons.
const IconSize = 256

// hicolorSizes lists the hicolor apps directories probed when resolving an
// icon name back to a file, largest first.
var hicolorSizes = []int{256, 128, 96, 64, 48, 512}

// Locations describes where install artifacts are placed. The zero value is
// not usable; construct one with UserLocations or SystemLocations, or fill it
// in directly for tests.
type Locations struct {
	// BinDir receives the installed executable.
	BinDir string

	// ApplicationsDir receives the .desktop entry file.
	ApplicationsDir string

	// IconBaseDir is the share directory containing icons/hicolor/...
	IconBaseDir string

	// SystemWide marks locations that require elevated writes.
	SystemWide bool
}

// UserLocations returns the per-user XDG install locations.
func UserLocations() Locations {
	home, _ := os.UserHomeDir()
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return Locations{
		BinDir:          filepath.Join(home, ".local", "bin"),
		ApplicationsDir: filepath.Join(dataHome, "applications"),
		IconBaseDir:     dataHome,
	}
}

// SystemLocations returns the system-wide install locations. Writing to them
// requires elevation; see Installer.
func SystemLocations() Locations {
	return Locations{
		BinDir:          "/usr/local/bin",
		ApplicationsDir: "/usr/share/applications",
		IconBaseDir:     "/usr/share",
		SystemWide:      true,
	}
}

// IconDir returns the hicolor apps directory for the install icon size.
func (l Locations) IconDir() string {
	return filepath.Join(l.IconBaseDir, "icons", "hicolor",
		fmt.Sprintf("%dx%d", IconSize, IconSize), "apps")
}

// EntryPath returns the full path of the desktop entry for a slug.
func (l Locations) EntryPath(slug string) string {
	return filepath.Join(l.ApplicationsDir, slug+".desktop")
}

// IconPath returns the full path of the installed icon for a slug.
func (l Locations) IconPath(slug string) string {
	return filepath.Join(l.IconDir(), slug+".png")
}

// EnsureDirs creates the user-writable target directories. It is a no-op for
// system-wide locations, which are expected to already exist.
func (l Locations) EnsureDirs() error {
	if l.SystemWide {
		return nil
	}
	for _, dir := range []string{l.BinDir, l.ApplicationsDir, l.IconDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveIconFile looks up an icon name (as referenced by a desktop entry)
// in the hicolor theme tree and pixmaps of the given locations. Returns an
// empty string when the icon cannot be found.
func ResolveIconFile(name string, locations ...Locations) string {
	if name == "" {
		return ""
	}
	// An absolute Icon= value is already a file path.
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name
		}
		return ""
	}

	for _, loc := range locations {
		for _, size := range hicolorSizes {
			for _, ext := range []string{".png", ".svg", ".xpm"} {
				candidate := filepath.Join(loc.IconBaseDir, "icons", "hicolor",
					fmt.Sprintf("%dx%d", size, size), "apps", name+ext)
				if _, err := os.Stat(candidate); err == nil {
					return candidate
				}
			}
		}
	}

	// Legacy flat pixmaps directory.
	for _, ext := range []string{".png", ".svg", ".xpm"} {
		candidate := filepath.Join("/usr/share/pixmaps", name+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
