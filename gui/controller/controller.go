// Package controller provides the bridge between the UI and the install
// logic.
package controller

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/K-Lakshan/Linux-program-installer/appimage"
	"github.com/K-Lakshan/Linux-program-installer/installer"
	"github.com/K-Lakshan/Linux-program-installer/internal/logging"
)

// LogLevel represents log message severity.
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogWarning
	LogError
)

// InstallController manages install operations and provides callbacks for
// UI updates. One operation runs at a time; the UI disables its buttons
// while IsBusy reports true.
type InstallController struct {
	config     *AppConfig
	log        zerolog.Logger
	cancelFunc context.CancelFunc

	// Callbacks
	onProgress    func(percent int, stage string)
	onLogMessage  func(LogLevel, string)
	onInstallDone func(*installer.Result, error)
	onIconDone    func(iconPath string, err error)
	onAppsChanged func()

	// State
	mu          sync.RWMutex
	busy        bool
	installedMu sync.RWMutex
	installed   []*installer.InstalledApp

	watcher *fsnotify.Watcher
}

// NewInstallController creates a new controller.
func NewInstallController() *InstallController {
	ctrl := &InstallController{
		config: LoadConfig(),
		log:    logging.New(logging.Config{LogFile: logging.DefaultLogFile()}),
	}

	ctrl.startWatcher()
	return ctrl
}

// SetOnProgress sets the callback for progress updates.
func (c *InstallController) SetOnProgress(callback func(percent int, stage string)) {
	c.onProgress = callback
}

// SetOnLogMessage sets the callback for log messages.
func (c *InstallController) SetOnLogMessage(callback func(LogLevel, string)) {
	c.onLogMessage = callback
}

// SetOnInstallDone sets the callback for install completion.
func (c *InstallController) SetOnInstallDone(callback func(*installer.Result, error)) {
	c.onInstallDone = callback
}

// SetOnIconDone sets the callback for icon extraction completion.
func (c *InstallController) SetOnIconDone(callback func(iconPath string, err error)) {
	c.onIconDone = callback
}

// SetOnAppsChanged sets the callback fired when the applications directories
// change on disk.
func (c *InstallController) SetOnAppsChanged(callback func()) {
	c.onAppsChanged = callback
}

// GetConfig returns the current configuration.
func (c *InstallController) GetConfig() *AppConfig {
	return c.config
}

// UpdateConfig updates and saves configuration.
func (c *InstallController) UpdateConfig(config *AppConfig) error {
	config.Validate()
	c.config = config
	return SaveConfig(config)
}

// IsBusy returns whether an operation is currently running.
func (c *InstallController) IsBusy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

func (c *InstallController) setBusy(busy bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if busy && c.busy {
		return false
	}
	c.busy = busy
	return true
}

func (c *InstallController) logMsg(level LogLevel, message string) {
	switch level {
	case LogWarning:
		c.log.Warn().Msg(message)
	case LogError:
		c.log.Error().Msg(message)
	default:
		c.log.Info().Msg(message)
	}
	if c.onLogMessage != nil {
		c.onLogMessage(level, message)
	}
}

// StartInstall runs an install in the background. Completion is reported
// through the OnInstallDone callback.
func (c *InstallController) StartInstall(req *installer.InstallRequest) error {
	if !c.setBusy(true) {
		return installer.ErrInstallInProgress
	}

	locations := installer.UserLocations()
	if req.SystemWide {
		locations = installer.SystemLocations()
	}

	inst := installer.New(locations)
	inst.SetLogger(c.log)
	inst.SetProgressCallback(func(percent int, stage string) {
		if c.onProgress != nil {
			c.onProgress(percent, stage)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	c.logMsg(LogInfo, "Installing "+req.DisplayName)

	go func() {
		defer c.setBusy(false)
		defer cancel()

		result, err := inst.Install(ctx, req)

		if err != nil {
			c.logMsg(LogError, "Install failed: "+err.Error())
		} else {
			c.logMsg(LogInfo, "Installed "+req.DisplayName+" -> "+result.EntryPath)
			c.config.AddRecentFile(req.SourcePath)
			c.config.LastCategory = req.NormalizedCategory()
			if err := SaveConfig(c.config); err != nil {
				c.logMsg(LogWarning, "Could not save config: "+err.Error())
			}
		}

		if c.onInstallDone != nil {
			c.onInstallDone(result, err)
		}
	}()

	return nil
}

// StartIconExtraction extracts an icon from the source in the background.
// Completion is reported through the OnIconDone callback; an empty icon path
// with nil error means no icon was found.
func (c *InstallController) StartIconExtraction(sourcePath string) error {
	if !c.setBusy(true) {
		return installer.ErrInstallInProgress
	}

	extractor := appimage.NewIconExtractor()
	extractor.SetLogger(c.log)
	extractor.SetProgressCallback(func(percent int) {
		if c.onProgress != nil {
			c.onProgress(percent, "Extracting icon")
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	c.logMsg(LogInfo, "Extracting icon from "+filepath.Base(sourcePath))

	go func() {
		defer c.setBusy(false)
		defer cancel()

		iconPath, err := extractor.Extract(ctx, sourcePath)

		switch {
		case err != nil:
			c.logMsg(LogError, "Icon extraction failed: "+err.Error())
		case iconPath == "":
			c.logMsg(LogWarning, "No icon found in "+filepath.Base(sourcePath))
		default:
			c.logMsg(LogInfo, "Icon extracted to "+iconPath)
		}

		if c.onIconDone != nil {
			c.onIconDone(iconPath, err)
		}
	}()

	return nil
}

// Cancel cancels the current operation.
func (c *InstallController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFunc != nil {
		c.cancelFunc()
		c.logMsg(LogInfo, "Operation cancelled")
	}
}

// RefreshApps re-reads the installed applications from disk.
func (c *InstallController) RefreshApps() []*installer.InstalledApp {
	manager := c.newManager()

	apps := manager.List()
	if !c.config.ShowSystemApps {
		user := apps[:0]
		for _, app := range apps {
			if !app.SystemWide {
				user = append(user, app)
			}
		}
		apps = user
	}

	c.installedMu.Lock()
	c.installed = apps
	c.installedMu.Unlock()

	return apps
}

// InstalledApps returns the last refreshed list.
func (c *InstallController) InstalledApps() []*installer.InstalledApp {
	c.installedMu.RLock()
	defer c.installedMu.RUnlock()
	return c.installed
}

// Uninstall removes an installed app, honoring the backup configuration.
func (c *InstallController) Uninstall(app *installer.InstalledApp) error {
	opts := installer.UninstallOptions{
		RemoveBinary: c.config.RemoveBinaries,
	}
	if c.config.BackupOnUninstall {
		stamp := time.Now().Format("20060102_150405")
		opts.BackupPath = filepath.Join(c.config.BackupDir,
			fmt.Sprintf("%s_%s.zip", app.Slug, stamp))
	}

	err := c.newManager().Uninstall(app, opts)
	if err != nil {
		c.logMsg(LogError, "Uninstall failed: "+err.Error())
		return err
	}

	c.logMsg(LogInfo, "Uninstalled "+app.DisplayName())
	if opts.BackupPath != "" {
		c.logMsg(LogInfo, "Backup written to "+opts.BackupPath)
	}
	return nil
}

// Launch starts an installed app.
func (c *InstallController) Launch(app *installer.InstalledApp) error {
	err := c.newManager().Launch(app)
	if err != nil {
		c.logMsg(LogError, "Launch failed: "+err.Error())
	}
	return err
}

func (c *InstallController) newManager() *installer.Manager {
	manager := installer.NewManager(installer.UserLocations(), installer.SystemLocations())
	manager.SetLogger(c.log)
	return manager
}

// startWatcher watches the applications directories so the Manage view can
// refresh itself when entries appear or disappear outside this tool.
func (c *InstallController) startWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Warn().Err(err).Msg("applications watch unavailable")
		return
	}
	c.watcher = watcher

	for _, loc := range []installer.Locations{installer.UserLocations(), installer.SystemLocations()} {
		if err := watcher.Add(loc.ApplicationsDir); err != nil {
			c.log.Debug().Err(err).Str("dir", loc.ApplicationsDir).Msg("not watching")
		}
	}

	go func() {
		// Debounce: desktop database updates touch several files at once.
		var pending <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) == ".desktop" {
					pending = time.After(500 * time.Millisecond)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Debug().Err(err).Msg("watch error")
			case <-pending:
				pending = nil
				if c.onAppsChanged != nil {
					c.onAppsChanged()
				}
			}
		}
	}()
}

// Close releases the controller's resources.
func (c *InstallController) Close() {
	if c.watcher != nil {
		c.watcher.Close()
	}
}
