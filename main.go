package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/K-Lakshan/Linux-program-installer/appimage"
	"github.com/K-Lakshan/Linux-program-installer/installer"
	"github.com/K-Lakshan/Linux-program-installer/internal/logging"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "install":
			runInstallCommand(os.Args[2:])
			return
		case "icon", "extract-icon":
			runIconCommand(os.Args[2:])
			return
		case "list":
			runListCommand(os.Args[2:])
			return
		case "uninstall":
			runUninstallCommand(os.Args[2:])
			return
		case "deps":
			runDepsCommand()
			return
		case "gui":
			if err := LaunchGUI(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "help", "--help", "-h":
			printMainHelp()
			return
		}
	}

	printMainHelp()
	os.Exit(1)
}

func printMainHelp() {
	fmt.Println("📦 Linux Program Installer")
	fmt.Println("===========================")
	fmt.Println()
	fmt.Println("Integrates AppImages and executables into your desktop:")
	fmt.Println("copies the binary, extracts an icon, and writes a menu entry.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install     Install an executable or AppImage")
	fmt.Println("  icon        Extract an icon from an executable or AppImage")
	fmt.Println("  list        List installed desktop entries")
	fmt.Println("  uninstall   Remove an installed entry")
	fmt.Println("  deps        Show status of optional external tools")
	fmt.Println("  gui         Launch the graphical version if installed")
	fmt.Println("  help        Show this help")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  program-installer install [options] <file>")
	fmt.Println("  program-installer icon [options] <file>")
	fmt.Println("  program-installer uninstall [options] <name>")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  program-installer install -name \"Cool App\" -category Graphics CoolApp.AppImage")
	fmt.Println("  program-installer icon -output ./icon.png CoolApp.AppImage")
	fmt.Println("  program-installer uninstall cool-app")
	fmt.Println()
	fmt.Println("Run 'program-installer <command> -h' for details.")
	fmt.Println()
	fmt.Println("For the GUI version, build cmd/gui (see README).")
}

// ═══════════════════════════════════════════════════════════════════════════
// INSTALL COMMAND
// ═══════════════════════════════════════════════════════════════════════════

func runInstallCommand(args []string) {
	installCmd := flag.NewFlagSet("install", flag.ExitOnError)

	name := installCmd.String("name", "", "Display name for the menu entry (default: derived from the file name)")
	category := installCmd.String("category", "Utility", "Freedesktop category ("+strings.Join(installer.Categories, ", ")+")")
	keywords := installCmd.String("keywords", "", "Comma-separated search keywords")
	description := installCmd.String("description", "", "Short description shown by launchers")
	iconFlag := installCmd.String("icon", "", "Icon image file (default: extracted from the application)")
	noIcon := installCmd.Bool("no-icon", false, "Skip icon extraction entirely")
	systemWide := installCmd.Bool("system", false, "Install system-wide for all users (uses pkexec)")
	verbose := installCmd.Bool("verbose", false, "Verbose output")

	installCmd.Usage = func() {
		fmt.Println("📦 Install an Application")
		fmt.Println("=========================")
		fmt.Println()
		fmt.Println("Copies the executable into the binaries directory, installs an icon,")
		fmt.Println("and writes a desktop entry. An existing entry with the same name is")
		fmt.Println("overwritten.")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  program-installer install [options] <file>")
		fmt.Println()
		installCmd.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  program-installer install CoolApp.AppImage")
		fmt.Println("  program-installer install -name \"Cool App\" -category Graphics -keywords \"paint,draw\" CoolApp.AppImage")
		fmt.Println("  program-installer install -system /opt/tools/mytool")
	}

	if err := installCmd.Parse(args); err != nil {
		os.Exit(1)
	}

	if installCmd.NArg() != 1 {
		fmt.Println("❌ Error: expected exactly one file to install")
		installCmd.Usage()
		os.Exit(1)
	}
	sourcePath := installCmd.Arg(0)

	displayName := *name
	if displayName == "" {
		displayName = installer.NameFromPath(sourcePath)
	}

	logLevel := "warn"
	if *verbose {
		logLevel = "info"
	}
	log := logging.New(logging.Config{
		Level:   logLevel,
		LogFile: logging.DefaultLogFile(),
	})

	req := &installer.InstallRequest{
		SourcePath:  sourcePath,
		DisplayName: displayName,
		Category:    *category,
		Keywords:    installer.ParseKeywords(*keywords),
		Description: *description,
		SystemWide:  *systemWide,
	}

	// Icon: explicit flag wins, otherwise try extraction. Extraction
	// failure is never fatal; the entry falls back to the default icon.
	if *iconFlag != "" {
		req.IconPath = *iconFlag
	} else if !*noIcon {
		extractor := appimage.NewIconExtractor()
		extractor.SetLogger(log)
		iconPath, err := extractor.Extract(context.Background(), sourcePath)
		switch {
		case err != nil:
			fmt.Printf("⚠️  Icon extraction failed: %v\n", err)
		case iconPath == "":
			fmt.Println("⚠️  No icon found; the entry will use the default system icon")
		default:
			req.IconPath = iconPath
			if *verbose {
				fmt.Printf("🖼️  Icon extracted: %s\n", iconPath)
			}
		}
	}

	locations := installer.UserLocations()
	if *systemWide {
		locations = installer.SystemLocations()
	}

	inst := installer.New(locations)
	inst.SetLogger(log)
	inst.SetProgressCallback(func(percent int, stage string) {
		if *verbose {
			fmt.Printf("\r🔄 %3d%% %s        ", percent, stage)
		}
	})

	result, err := inst.Install(context.Background(), req)
	if *verbose {
		fmt.Println()
	}
	if err != nil {
		fmt.Printf("❌ Install failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Installed!")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📛 Name:        %s\n", req.DisplayName)
	fmt.Printf("⚙️  Executable:  %s\n", result.BinaryPath)
	if result.IconPath != "" {
		fmt.Printf("🖼️  Icon:        %s\n", result.IconPath)
	}
	fmt.Printf("📄 Entry:       %s\n", result.EntryPath)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// ═══════════════════════════════════════════════════════════════════════════
// ICON COMMAND
// ═══════════════════════════════════════════════════════════════════════════

func runIconCommand(args []string) {
	iconCmd := flag.NewFlagSet("icon", flag.ExitOnError)

	output := iconCmd.String("output", "", "Where to copy the extracted icon (default: print the temp path)")
	verbose := iconCmd.Bool("verbose", false, "Verbose output")

	iconCmd.Usage = func() {
		fmt.Println("🖼️  Extract an Icon")
		fmt.Println("==================")
		fmt.Println()
		fmt.Println("AppImages are unpacked with --appimage-extract and searched for their")
		fmt.Println("bundled icon. Other executables are scanned for embedded PNG or ICO")
		fmt.Println("resources.")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  program-installer icon [options] <file>")
		fmt.Println()
		iconCmd.PrintDefaults()
	}

	if err := iconCmd.Parse(args); err != nil {
		os.Exit(1)
	}

	if iconCmd.NArg() != 1 {
		fmt.Println("❌ Error: expected exactly one file")
		iconCmd.Usage()
		os.Exit(1)
	}

	extractor := appimage.NewIconExtractor()
	if *verbose {
		extractor.SetLogger(logging.New(logging.Config{Level: "info"}))
		extractor.SetProgressCallback(func(percent int) {
			fmt.Printf("\r🔄 %3d%%", percent)
		})
	}

	iconPath, err := extractor.Extract(context.Background(), iconCmd.Arg(0))
	if *verbose {
		fmt.Println()
	}
	if err != nil {
		fmt.Printf("❌ Extraction failed: %v\n", err)
		os.Exit(1)
	}
	if iconPath == "" {
		fmt.Println("⚠️  No icon found")
		os.Exit(2)
	}

	if *output != "" {
		data, err := os.ReadFile(iconPath)
		if err == nil {
			err = os.WriteFile(*output, data, 0644)
		}
		if err != nil {
			fmt.Printf("❌ Could not write %s: %v\n", *output, err)
			os.Exit(1)
		}
		iconPath = *output
	}

	fmt.Printf("✅ Icon: %s\n", iconPath)
}

// ═══════════════════════════════════════════════════════════════════════════
// LIST COMMAND
// ═══════════════════════════════════════════════════════════════════════════

func runListCommand(args []string) {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	userOnly := listCmd.Bool("user", false, "Show only per-user entries")
	verbose := listCmd.Bool("verbose", false, "Show Exec and categories")

	listCmd.Usage = func() {
		fmt.Println("📋 List Installed Entries")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  program-installer list [options]")
		fmt.Println()
		listCmd.PrintDefaults()
	}

	if err := listCmd.Parse(args); err != nil {
		os.Exit(1)
	}

	manager := installer.NewManager(installer.UserLocations(), installer.SystemLocations())
	apps := manager.List()

	count := 0
	for _, app := range apps {
		if *userOnly && app.SystemWide {
			continue
		}
		count++

		scope := "user"
		if app.SystemWide {
			scope = "system"
		}
		fmt.Printf("  %-40s [%s] %s\n", app.DisplayName(), scope, app.Slug)
		if *verbose && app.Entry != nil {
			fmt.Printf("      Exec: %s\n", app.Entry.Exec)
			if len(app.Entry.Categories) > 0 {
				fmt.Printf("      Categories: %s\n", strings.Join(app.Entry.Categories, ", "))
			}
		}
	}

	fmt.Printf("\n%d entries\n", count)
}

// ═══════════════════════════════════════════════════════════════════════════
// UNINSTALL COMMAND
// ═══════════════════════════════════════════════════════════════════════════

func runUninstallCommand(args []string) {
	uninstallCmd := flag.NewFlagSet("uninstall", flag.ExitOnError)

	keepBinary := uninstallCmd.Bool("keep-binary", false, "Remove only the desktop entry, keep the executable")
	backup := uninstallCmd.String("backup", "", "Archive removed files into this zip before deleting")
	password := uninstallCmd.String("password", "", "Password-protect the backup archive (AES-256)")

	uninstallCmd.Usage = func() {
		fmt.Println("🗑️  Uninstall an Entry")
		fmt.Println("=====================")
		fmt.Println()
		fmt.Println("Removes the desktop entry plus the icon and binary this tool placed.")
		fmt.Println("The <name> argument is the entry's slug as shown by 'list'.")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  program-installer uninstall [options] <name>")
		fmt.Println()
		uninstallCmd.PrintDefaults()
	}

	if err := uninstallCmd.Parse(args); err != nil {
		os.Exit(1)
	}

	if uninstallCmd.NArg() != 1 {
		fmt.Println("❌ Error: expected exactly one entry name")
		uninstallCmd.Usage()
		os.Exit(1)
	}
	slug := uninstallCmd.Arg(0)

	manager := installer.NewManager(installer.UserLocations(), installer.SystemLocations())

	var target *installer.InstalledApp
	for _, app := range manager.List() {
		if app.Slug == slug {
			target = app
			break
		}
	}
	if target == nil {
		fmt.Printf("❌ Error: no installed entry named %q (try 'program-installer list')\n", slug)
		os.Exit(1)
	}

	opts := installer.UninstallOptions{
		RemoveBinary:   !*keepBinary,
		BackupPath:     *backup,
		BackupPassword: *password,
	}
	if err := manager.Uninstall(target, opts); err != nil {
		fmt.Printf("❌ Uninstall failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Uninstalled %s\n", target.DisplayName())
	if *backup != "" {
		fmt.Printf("📦 Backup: %s\n", *backup)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// DEPS COMMAND
// ═══════════════════════════════════════════════════════════════════════════

func runDepsCommand() {
	checker := installer.NewDependencyChecker()
	checker.CheckAll()
	fmt.Print(checker.FormatStatusReport())
}
