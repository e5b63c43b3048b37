package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Common validation errors
var (
	ErrEmptyName           = errors.New("display name cannot be empty")
	ErrEmptySource         = errors.New("source path cannot be empty")
	ErrSourceMissing       = errors.New("source file does not exist")
	ErrSourceNotRegular    = errors.New("source is not a regular file")
	ErrSourceNotExecutable = errors.New("source file is not executable")
	ErrInstallInProgress   = errors.New("another install is already in progress")
)

// Categories lists the freedesktop main categories offered by the UI, in the
// order they are shown.
var Categories = []string{
	"AudioVideo", "Development", "Education", "Game", "Graphics",
	"Network", "Office", "Science", "Settings", "System", "Utility",
}

// DefaultCategory is used when the request does not name one.
const DefaultCategory = "Utility"

// InstallRequest describes a single install operation. It is created when
// the user submits the form (or runs the install subcommand), consumed once,
// and never persisted.
type InstallRequest struct {
	// SourcePath is the executable or AppImage to install.
	SourcePath string

	// DisplayName is the menu name. Also the basis of the artifact slug.
	DisplayName string

	// Category is a freedesktop main category. Defaults to Utility.
	Category string

	// Keywords are optional search keywords, in order.
	Keywords []string

	// IconPath optionally points at an image file to install as the icon.
	IconPath string

	// Description becomes the entry's Comment line.
	Description string

	// SystemWide installs for all users (requires elevation).
	SystemWide bool
}

// Validate checks the request invariants without touching the filesystem
// targets. The source must exist, be a regular file, and be executable;
// AppImages are exempt from the mode-bit check because the installer marks
// them executable itself.
func (r *InstallRequest) Validate() error {
	if strings.TrimSpace(r.DisplayName) == "" {
		return ErrEmptyName
	}
	if r.SourcePath == "" {
		return ErrEmptySource
	}

	info, err := os.Stat(r.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, r.SourcePath)
		}
		return fmt.Errorf("checking source %s: %w", r.SourcePath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrSourceNotRegular, r.SourcePath)
	}
	if info.Mode().Perm()&0111 == 0 && !IsAppImagePath(r.SourcePath) {
		return fmt.Errorf("%w: %s", ErrSourceNotExecutable, r.SourcePath)
	}

	if r.IconPath != "" {
		if _, err := os.Stat(r.IconPath); err != nil {
			return fmt.Errorf("icon file %s: %w", r.IconPath, err)
		}
	}
	return nil
}

// Slug returns the artifact file-name stem for this request.
func (r *InstallRequest) Slug() string {
	return Slug(r.DisplayName)
}

// BinaryName returns the name the executable is installed under. AppImages
// keep their suffix so launchers and users can tell what they are.
func (r *InstallRequest) BinaryName() string {
	name := r.Slug()
	if IsAppImagePath(r.SourcePath) && !IsAppImagePath(name) {
		name += ".AppImage"
	}
	return name
}

// NormalizedCategory returns the request category or the default.
func (r *InstallRequest) NormalizedCategory() string {
	if strings.TrimSpace(r.Category) == "" {
		return DefaultCategory
	}
	return strings.TrimSpace(r.Category)
}

// IsAppImagePath reports whether a path has an AppImage suffix.
func IsAppImagePath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".appimage")
}

// NameFromPath guesses a display name from a file path: extension stripped,
// dashes and underscores become spaces, words capitalized.
// "cool-app-1.2.AppImage" becomes "Cool App 1.2".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if IsAppImagePath(base) {
		base = base[:len(base)-len(".appimage")]
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	words := strings.Fields(base)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// ParseKeywords splits a comma-separated keyword string as entered in the
// form into trimmed, non-empty keywords.
func ParseKeywords(s string) []string {
	var keywords []string
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
