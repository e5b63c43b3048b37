package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// guiBinary is the build product of cmd/gui.
const guiBinary = "program-installer-gui"

// findGUIBinary locates the graphical build: a sibling of the running CLI
// binary wins over one found on PATH. Returns "" when neither exists.
func findGUIBinary() string {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), guiBinary)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling
		}
	}
	if path, err := exec.LookPath(guiBinary); err == nil {
		return path
	}
	return ""
}

// LaunchGUI starts the graphical version when its binary can be found and
// prints build instructions otherwise.
func LaunchGUI() error {
	path := findGUIBinary()
	if path == "" {
		fmt.Printf("%s is not installed. Build it with:\n", guiBinary)
		fmt.Printf("  go build -o %s ./cmd/gui\n", guiBinary)
		fmt.Println("and place it next to this binary or on your PATH.")
		return nil
	}

	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
