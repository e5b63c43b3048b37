package controller

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/K-Lakshan/Linux-program-installer/installer"
)

func newTestController(t *testing.T) *InstallController {
	t.Helper()
	sandboxConfig(t)

	ctrl := NewInstallController()
	t.Cleanup(ctrl.Close)
	return ctrl
}

// TestNewInstallController tests controller creation
func TestNewInstallController(t *testing.T) {
	ctrl := newTestController(t)

	if ctrl == nil {
		t.Fatal("NewInstallController returned nil")
	}
	if ctrl.config == nil {
		t.Error("Controller config is nil")
	}
	if ctrl.IsBusy() {
		t.Error("A fresh controller should not be busy")
	}
}

// TestCallbacks tests callback registration
func TestCallbacks(t *testing.T) {
	ctrl := newTestController(t)

	ctrl.SetOnProgress(func(percent int, stage string) {})
	ctrl.SetOnLogMessage(func(level LogLevel, msg string) {})
	ctrl.SetOnInstallDone(func(result *installer.Result, err error) {})
	ctrl.SetOnIconDone(func(iconPath string, err error) {})
	ctrl.SetOnAppsChanged(func() {})

	if ctrl.onProgress == nil {
		t.Error("onProgress callback not set")
	}
	if ctrl.onLogMessage == nil {
		t.Error("onLogMessage callback not set")
	}
	if ctrl.onInstallDone == nil {
		t.Error("onInstallDone callback not set")
	}
	if ctrl.onIconDone == nil {
		t.Error("onIconDone callback not set")
	}
	if ctrl.onAppsChanged == nil {
		t.Error("onAppsChanged callback not set")
	}
}

// TestBusyGuard tests that only one operation can start at a time
func TestBusyGuard(t *testing.T) {
	ctrl := newTestController(t)

	if !ctrl.setBusy(true) {
		t.Fatal("First setBusy(true) should succeed")
	}
	if ctrl.setBusy(true) {
		t.Error("Second setBusy(true) should fail while busy")
	}

	src := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(src, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	req := &installer.InstallRequest{SourcePath: src, DisplayName: "Tool"}
	if err := ctrl.StartInstall(req); !errors.Is(err, installer.ErrInstallInProgress) {
		t.Errorf("Expected ErrInstallInProgress, got %v", err)
	}
	if err := ctrl.StartIconExtraction(src); !errors.Is(err, installer.ErrInstallInProgress) {
		t.Errorf("Expected ErrInstallInProgress, got %v", err)
	}

	ctrl.setBusy(false)
	if ctrl.IsBusy() {
		t.Error("Controller should be idle after setBusy(false)")
	}
}

// TestStartInstall tests a background install end to end
func TestStartInstall(t *testing.T) {
	ctrl := newTestController(t)

	src := filepath.Join(t.TempDir(), "cool-tool")
	if err := os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0755); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var result *installer.Result
	var installErr error
	ctrl.SetOnInstallDone(func(r *installer.Result, err error) {
		result = r
		installErr = err
		close(done)
	})

	req := &installer.InstallRequest{SourcePath: src, DisplayName: "Cool Tool", Category: "Utility"}
	if err := ctrl.StartInstall(req); err != nil {
		t.Fatalf("StartInstall returned an error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Install did not complete in time")
	}

	if installErr != nil {
		t.Fatalf("Install failed: %v", installErr)
	}
	if result == nil || result.Slug != "cool-tool" {
		t.Fatalf("Result = %+v", result)
	}
	if _, err := os.Stat(result.EntryPath); err != nil {
		t.Errorf("Desktop entry was not written: %v", err)
	}
	if len(ctrl.config.RecentFiles) == 0 || ctrl.config.RecentFiles[0] != src {
		t.Errorf("RecentFiles = %v, want the installed source first", ctrl.config.RecentFiles)
	}
}

// TestStartIconExtractionNoIcon tests the empty-path completion for a binary
// without an icon
func TestStartIconExtractionNoIcon(t *testing.T) {
	ctrl := newTestController(t)

	src := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0755); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var iconPath string
	var iconErr error
	ctrl.SetOnIconDone(func(path string, err error) {
		iconPath = path
		iconErr = err
		close(done)
	})

	if err := ctrl.StartIconExtraction(src); err != nil {
		t.Fatalf("StartIconExtraction returned an error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Extraction did not complete in time")
	}

	if iconErr != nil {
		t.Errorf("Expected nil error for a binary without an icon, got %v", iconErr)
	}
	if iconPath != "" {
		t.Errorf("Expected empty icon path, got %s", iconPath)
	}
}

// TestRefreshApps tests listing and the system-apps filter
func TestRefreshApps(t *testing.T) {
	ctrl := newTestController(t)

	userLoc := installer.UserLocations()
	if err := os.MkdirAll(userLoc.ApplicationsDir, 0755); err != nil {
		t.Fatal(err)
	}
	entry := &installer.DesktopEntry{Name: "Sandboxed", Exec: "/bin/true"}
	if err := entry.WriteFile(filepath.Join(userLoc.ApplicationsDir, "sandboxed.desktop")); err != nil {
		t.Fatal(err)
	}

	ctrl.config.ShowSystemApps = false
	apps := ctrl.RefreshApps()

	found := false
	for _, app := range apps {
		if app.SystemWide {
			t.Error("System apps should be filtered out")
		}
		if app.Slug == "sandboxed" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the sandboxed entry in the refreshed list")
	}

	cached := ctrl.InstalledApps()
	if len(cached) != len(apps) {
		t.Errorf("InstalledApps = %d entries, want %d", len(cached), len(apps))
	}
}

// TestUninstallWithBackup tests that the configured backup archive is written
func TestUninstallWithBackup(t *testing.T) {
	ctrl := newTestController(t)

	userLoc := installer.UserLocations()
	if err := os.MkdirAll(userLoc.ApplicationsDir, 0755); err != nil {
		t.Fatal(err)
	}
	entry := &installer.DesktopEntry{Name: "Doomed", Exec: "/bin/true"}
	entryPath := filepath.Join(userLoc.ApplicationsDir, "doomed.desktop")
	if err := entry.WriteFile(entryPath); err != nil {
		t.Fatal(err)
	}

	backupDir := t.TempDir()
	ctrl.config.BackupOnUninstall = true
	ctrl.config.BackupDir = backupDir
	ctrl.config.ShowSystemApps = false

	var target *installer.InstalledApp
	for _, app := range ctrl.RefreshApps() {
		if app.Slug == "doomed" {
			target = app
		}
	}
	if target == nil {
		t.Fatal("Entry not found in the refreshed list")
	}

	if err := ctrl.Uninstall(target); err != nil {
		t.Fatalf("Uninstall returned an error: %v", err)
	}

	if _, err := os.Stat(entryPath); !os.IsNotExist(err) {
		t.Error("Entry should have been removed")
	}
	backups, err := filepath.Glob(filepath.Join(backupDir, "doomed_*.zip"))
	if err != nil || len(backups) != 1 {
		t.Errorf("Expected one backup archive, got %v (err %v)", backups, err)
	}
}

// TestCancelWithoutOperation tests that Cancel is safe when idle
func TestCancelWithoutOperation(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.Cancel()
}
