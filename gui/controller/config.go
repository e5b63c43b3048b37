package controller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	// Install settings
	DefaultSystemWide bool   `json:"default_system_wide"`
	LastCategory      string `json:"last_category"`
	BackupOnUninstall bool   `json:"backup_on_uninstall"`
	BackupDir         string `json:"backup_dir"`
	RemoveBinaries    bool   `json:"remove_binaries"`

	// UI settings
	Theme            string `json:"theme"` // "dark", "light", "system"
	ConfirmUninstall bool   `json:"confirm_uninstall"`
	ShowSystemApps   bool   `json:"show_system_apps"`

	// Window settings
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`

	// Recent source files
	RecentFiles []string `json:"recent_files"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	homeDir, _ := os.UserHomeDir()

	return &AppConfig{
		DefaultSystemWide: false,
		LastCategory:      "Utility",
		BackupOnUninstall: false,
		BackupDir:         filepath.Join(homeDir, "InstallerBackups"),
		RemoveBinaries:    true,

		Theme:            "system",
		ConfirmUninstall: true,
		ShowSystemApps:   true,

		WindowWidth:  900,
		WindowHeight: 650,

		RecentFiles: []string{},
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, "Library", "Application Support")
	default: // linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, _ := os.UserHomeDir()
			configDir = filepath.Join(homeDir, ".config")
		}
	}

	appConfigDir := filepath.Join(configDir, "ProgramInstaller")
	_ = os.MkdirAll(appConfigDir, 0755)

	return appConfigDir
}

// getConfigPath returns the full path to the config file.
func getConfigPath() string {
	return filepath.Join(getConfigDir(), "config.json")
}

// LoadConfig loads configuration from disk or returns defaults.
func LoadConfig() *AppConfig {
	config := DefaultConfig()

	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		return config
	}

	if err := json.Unmarshal(data, config); err != nil {
		return DefaultConfig()
	}

	config.Validate()
	return config
}

// SaveConfig saves configuration to disk.
func SaveConfig(config *AppConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(getConfigPath(), data, 0644)
}

// AddRecentFile adds a source file to the recent list, most recent first.
func (c *AppConfig) AddRecentFile(path string) {
	newFiles := make([]string, 0, len(c.RecentFiles)+1)
	newFiles = append(newFiles, path)

	for _, f := range c.RecentFiles {
		if f != path {
			newFiles = append(newFiles, f)
		}
	}

	if len(newFiles) > 10 {
		newFiles = newFiles[:10]
	}

	c.RecentFiles = newFiles
}

// Validate normalizes configuration values to sensible ranges.
func (c *AppConfig) Validate() {
	if c.WindowWidth < 700 {
		c.WindowWidth = 700
	}
	if c.WindowHeight < 500 {
		c.WindowHeight = 500
	}
	if c.LastCategory == "" {
		c.LastCategory = "Utility"
	}
	if c.BackupDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.BackupDir = filepath.Join(homeDir, "InstallerBackups")
	}
}

// Clone creates a deep copy of the config.
func (c *AppConfig) Clone() *AppConfig {
	clone := *c

	if c.RecentFiles != nil {
		clone.RecentFiles = make([]string, len(c.RecentFiles))
		copy(clone.RecentFiles, c.RecentFiles)
	}

	return &clone
}
