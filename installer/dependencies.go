package installer

import (
	"fmt"
	"os/exec"
	"strings"
)

// DependencyStatus represents the status of a single external tool.
type DependencyStatus struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Path        string `json:"path,omitempty"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	InstallHint string `json:"install_hint"`
}

// DependencyChecker checks for the optional external tools the installer
// shells out to. All of them are optional: installs work without them, with
// degraded behavior (no menu refresh, no system-wide scope).
type DependencyChecker struct {
	results map[string]*DependencyStatus
}

// NewDependencyChecker creates a new dependency checker.
func NewDependencyChecker() *DependencyChecker {
	return &DependencyChecker{
		results: make(map[string]*DependencyStatus),
	}
}

// CheckAll checks all dependencies and returns their statuses.
func (dc *DependencyChecker) CheckAll() map[string]*DependencyStatus {
	dc.checkTool("update-desktop-database",
		"Refreshes the applications menu after install/uninstall",
		"sudo apt install desktop-file-utils")
	dc.checkTool("gtk-update-icon-cache",
		"Refreshes the icon theme cache after installing icons",
		"sudo apt install gtk-update-icon-cache")
	dc.checkTool("pkexec",
		"Privilege elevation for system-wide installs",
		"sudo apt install policykit-1")
	return dc.results
}

func (dc *DependencyChecker) checkTool(binary, description, installHint string) {
	status := &DependencyStatus{
		Name:        binary,
		Required:    false,
		Description: description,
		InstallHint: installHint,
	}

	path, err := exec.LookPath(binary)
	if err == nil {
		status.Available = true
		status.Path = path
		if out, err := exec.Command(path, "--version").Output(); err == nil {
			lines := strings.Split(string(out), "\n")
			if len(lines) > 0 {
				status.Version = strings.TrimSpace(lines[0])
			}
		}
	}

	dc.results[binary] = status
}

// IsAvailable returns true if the named tool is available.
func (dc *DependencyChecker) IsAvailable(binary string) bool {
	if dc.results[binary] == nil {
		dc.CheckAll()
	}
	status := dc.results[binary]
	return status != nil && status.Available
}

// GetMissingDependencies returns the tools that are not available.
func (dc *DependencyChecker) GetMissingDependencies() []*DependencyStatus {
	var missing []*DependencyStatus
	for _, status := range dc.results {
		if !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}

// FormatStatusReport returns a formatted string with tool statuses.
func (dc *DependencyChecker) FormatStatusReport() string {
	var sb strings.Builder
	sb.WriteString("External tools:\n\n")

	for _, binary := range []string{"update-desktop-database", "gtk-update-icon-cache", "pkexec"} {
		status := dc.results[binary]
		if status == nil {
			continue
		}
		if status.Available {
			sb.WriteString(fmt.Sprintf("  ✅ %s", status.Name))
			if status.Version != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", status.Version))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString(fmt.Sprintf("  ❌ %s: not installed\n", status.Name))
			sb.WriteString(fmt.Sprintf("     %s\n", status.Description))
			sb.WriteString(fmt.Sprintf("     install: %s\n", status.InstallHint))
		}
	}

	return sb.String()
}
