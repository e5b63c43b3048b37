package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLocations(t *testing.T) Locations {
	t.Helper()
	base := t.TempDir()
	return Locations{
		BinDir:          filepath.Join(base, "bin"),
		ApplicationsDir: filepath.Join(base, "applications"),
		IconBaseDir:     filepath.Join(base, "share"),
	}
}

// TestUserLocations tests the per-user XDG layout
func TestUserLocations(t *testing.T) {
	loc := UserLocations()

	if loc.SystemWide {
		t.Error("UserLocations should not be system-wide")
	}
	if !strings.HasSuffix(loc.BinDir, filepath.Join(".local", "bin")) {
		t.Errorf("BinDir = %s, want ~/.local/bin", loc.BinDir)
	}
	if !strings.HasSuffix(loc.ApplicationsDir, "applications") {
		t.Errorf("ApplicationsDir = %s, want .../applications", loc.ApplicationsDir)
	}
}

// TestUserLocationsXDGOverride tests that XDG_DATA_HOME is honored
func TestUserLocationsXDGOverride(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_DATA_HOME", custom)

	loc := UserLocations()
	if loc.ApplicationsDir != filepath.Join(custom, "applications") {
		t.Errorf("ApplicationsDir = %s, want %s", loc.ApplicationsDir, filepath.Join(custom, "applications"))
	}
	if loc.IconBaseDir != custom {
		t.Errorf("IconBaseDir = %s, want %s", loc.IconBaseDir, custom)
	}
}

// TestSystemLocations tests the system-wide layout
func TestSystemLocations(t *testing.T) {
	loc := SystemLocations()

	if !loc.SystemWide {
		t.Error("SystemLocations should be system-wide")
	}
	if loc.BinDir != "/usr/local/bin" {
		t.Errorf("BinDir = %s, want /usr/local/bin", loc.BinDir)
	}
	if loc.ApplicationsDir != "/usr/share/applications" {
		t.Errorf("ApplicationsDir = %s, want /usr/share/applications", loc.ApplicationsDir)
	}
}

// TestArtifactPaths tests slug-derived artifact paths
func TestArtifactPaths(t *testing.T) {
	loc := testLocations(t)

	if got := loc.EntryPath("cool-app"); got != filepath.Join(loc.ApplicationsDir, "cool-app.desktop") {
		t.Errorf("EntryPath = %s", got)
	}

	iconPath := loc.IconPath("cool-app")
	if filepath.Base(iconPath) != "cool-app.png" {
		t.Errorf("IconPath base = %s, want cool-app.png", filepath.Base(iconPath))
	}
	if !strings.Contains(iconPath, "icons/hicolor/256x256/apps") {
		t.Errorf("IconPath = %s, want a hicolor 256x256 path", iconPath)
	}
}

// TestEnsureDirs tests that target directories are created for user installs
func TestEnsureDirs(t *testing.T) {
	loc := testLocations(t)

	if err := loc.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs returned an error: %v", err)
	}

	for _, dir := range []string{loc.BinDir, loc.ApplicationsDir, loc.IconDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("Directory %s was not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

// TestEnsureDirsSystemWide tests that system locations are left alone
func TestEnsureDirsSystemWide(t *testing.T) {
	loc := testLocations(t)
	loc.SystemWide = true

	if err := loc.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs returned an error: %v", err)
	}
	if _, err := os.Stat(loc.BinDir); !os.IsNotExist(err) {
		t.Error("EnsureDirs should not create directories for system-wide locations")
	}
}

// TestResolveIconFile tests resolving an icon name to an installed file
func TestResolveIconFile(t *testing.T) {
	loc := testLocations(t)
	if err := loc.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	iconFile := loc.IconPath("cool-app")
	if err := os.WriteFile(iconFile, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := ResolveIconFile("cool-app", loc); got != iconFile {
		t.Errorf("ResolveIconFile = %s, want %s", got, iconFile)
	}
	if got := ResolveIconFile("no-such-icon", loc); got != "" {
		t.Errorf("ResolveIconFile for unknown icon = %s, want empty", got)
	}
	if got := ResolveIconFile("", loc); got != "" {
		t.Errorf("ResolveIconFile for empty name = %s, want empty", got)
	}
}

// TestResolveIconFileAbsolute tests that absolute Icon values resolve directly
func TestResolveIconFileAbsolute(t *testing.T) {
	iconFile := filepath.Join(t.TempDir(), "direct.png")
	if err := os.WriteFile(iconFile, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := ResolveIconFile(iconFile); got != iconFile {
		t.Errorf("ResolveIconFile = %s, want %s", got, iconFile)
	}
	if got := ResolveIconFile(filepath.Join(t.TempDir(), "gone.png")); got != "" {
		t.Errorf("ResolveIconFile for missing absolute path = %s, want empty", got)
	}
}
