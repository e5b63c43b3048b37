package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// InstalledApp is a desktop entry found on disk, as shown in the Manage tab.
type InstalledApp struct {
	// Path is the .desktop file location.
	Path string

	// Slug is the entry file name without the .desktop suffix.
	Slug string

	// SystemWide is true for entries under the system applications dir.
	SystemWide bool

	Entry *DesktopEntry
}

// DisplayName returns the entry name, falling back to the slug.
func (a *InstalledApp) DisplayName() string {
	if a.Entry != nil && a.Entry.Name != "" {
		return a.Entry.Name
	}
	return a.Slug
}

// IconFile resolves the entry's icon to an image file on disk, or "".
func (a *InstalledApp) IconFile() string {
	if a.Entry == nil {
		return ""
	}
	return ResolveIconFile(a.Entry.Icon, UserLocations(), SystemLocations())
}

// Manager lists, launches, and uninstalls installed desktop entries.
type Manager struct {
	user   Locations
	system Locations
	log    zerolog.Logger

	elevate func(name string, args ...string) error
}

// NewManager creates a Manager over the user and system locations.
func NewManager(user, system Locations) *Manager {
	return &Manager{
		user:   user,
		system: system,
		log:    zerolog.Nop(),
		elevate: func(name string, args ...string) error {
			pkexec, err := exec.LookPath("pkexec")
			if err != nil {
				return fmt.Errorf("removing system entries requires pkexec: %w", err)
			}
			return exec.Command(pkexec, append([]string{name}, args...)...).Run()
		},
	}
}

// SetLogger sets the operation logger.
func (m *Manager) SetLogger(log zerolog.Logger) {
	m.log = log
}

// List returns all parseable desktop entries in the user and system
// applications directories, user entries first, each group sorted by name.
func (m *Manager) List() []*InstalledApp {
	apps := m.listDir(m.user.ApplicationsDir, false)
	apps = append(apps, m.listDir(m.system.ApplicationsDir, true)...)
	return apps
}

func (m *Manager) listDir(dir string, systemWide bool) []*InstalledApp {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var apps []*InstalledApp
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".desktop") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		entry, err := ParseEntryFile(path)
		if err != nil {
			m.log.Debug().Err(err).Str("path", path).Msg("skipping unparseable entry")
			continue
		}
		apps = append(apps, &InstalledApp{
			Path:       path,
			Slug:       strings.TrimSuffix(de.Name(), ".desktop"),
			SystemWide: systemWide,
			Entry:      entry,
		})
	}

	sort.Slice(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].DisplayName()) < strings.ToLower(apps[j].DisplayName())
	})
	return apps
}

// UninstallOptions controls what Uninstall removes and whether artifacts are
// archived first.
type UninstallOptions struct {
	// RemoveBinary also deletes the Exec target when it lives inside the
	// managed binaries directory. Binaries elsewhere are left alone.
	RemoveBinary bool

	// BackupPath, when set, archives the removed files into a zip at this
	// path before deleting anything.
	BackupPath string

	// BackupPassword AES-encrypts the backup archive when non-empty.
	BackupPassword string
}

// Uninstall removes an installed app: its desktop entry, its managed icon,
// and optionally its managed binary. System entries are removed through
// elevation.
func (m *Manager) Uninstall(app *InstalledApp, opts UninstallOptions) error {
	if app == nil {
		return fmt.Errorf("no application selected")
	}

	targets := []string{app.Path}

	loc := m.user
	if app.SystemWide {
		loc = m.system
	}

	// Only touch icons and binaries this tool plausibly placed: files named
	// after the slug inside our managed directories.
	iconPath := loc.IconPath(app.Slug)
	if _, err := os.Stat(iconPath); err == nil {
		targets = append(targets, iconPath)
	}
	if opts.RemoveBinary && app.Entry != nil {
		binary := execTarget(app.Entry.Exec)
		if binary != "" && filepath.Dir(binary) == loc.BinDir {
			if _, err := os.Stat(binary); err == nil {
				targets = append(targets, binary)
			}
		}
	}

	if opts.BackupPath != "" {
		if err := BackupFiles(targets, opts.BackupPath, opts.BackupPassword); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
		m.log.Info().Str("backup", opts.BackupPath).Msg("uninstall backup written")
	}

	for _, target := range targets {
		var err error
		if app.SystemWide {
			err = m.elevate("rm", "-f", target)
		} else {
			err = os.Remove(target)
		}
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", target, err)
		}
		m.log.Info().Str("path", target).Msg("removed")
	}
	return nil
}

// Launch starts the app's Exec command detached from this process.
func (m *Manager) Launch(app *InstalledApp) error {
	if app == nil || app.Entry == nil || app.Entry.Exec == "" {
		return fmt.Errorf("entry has no Exec command")
	}

	fields := splitExec(app.Entry.Exec)
	if len(fields) == 0 {
		return fmt.Errorf("entry has no Exec command")
	}

	cmd := exec.Command(fields[0], fields[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching %s: %w", app.DisplayName(), err)
	}
	// Detach: collect the exit status in the background so the child is
	// reaped without blocking the caller.
	go cmd.Wait()

	m.log.Info().Str("name", app.DisplayName()).Str("exec", app.Entry.Exec).Msg("launched")
	return nil
}

// execTarget returns the program path of an Exec line, stripping arguments
// and desktop-entry field codes like %f and %U.
func execTarget(execLine string) string {
	fields := splitExec(execLine)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// splitExec splits an Exec value into argv, honoring double quotes and
// dropping field codes.
func splitExec(execLine string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		field := current.String()
		current.Reset()
		// Drop %f, %F, %u, %U and friends; keep literal %%.
		if len(field) == 2 && field[0] == '%' && field[1] != '%' {
			return
		}
		fields = append(fields, strings.ReplaceAll(field, "%%", "%"))
	}

	for _, r := range execLine {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return fields
}
