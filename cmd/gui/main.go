package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/K-Lakshan/Linux-program-installer/appimage"
	"github.com/K-Lakshan/Linux-program-installer/gui/controller"
	"github.com/K-Lakshan/Linux-program-installer/installer"
)

// InstallerGUI represents the GUI application.
type InstallerGUI struct {
	app    fyne.App
	window fyne.Window
	ctrl   *controller.InstallController

	// Install tab
	sourceEntry      *widget.Entry
	nameEntry        *widget.Entry
	iconEntry        *widget.Entry
	iconPreview      *canvas.Image
	categorySelect   *widget.Select
	keywordsEntry    *widget.Entry
	descriptionEntry *widget.Entry
	systemWideCheck  *widget.Check
	installButton    *widget.Button
	extractButton    *widget.Button
	clearButton      *widget.Button
	progressBar      *widget.ProgressBar
	statusLabel      *widget.Label
	logView          *widget.Entry

	// Manage tab
	appsList        *widget.List
	detailsBox      *fyne.Container
	launchButton    *widget.Button
	uninstallButton *widget.Button

	// State
	apps        []*installer.InstalledApp
	appsMutex   sync.RWMutex
	selectedApp *installer.InstalledApp
	busy        atomic.Bool
}

// NewInstallerGUI creates a new GUI instance.
func NewInstallerGUI() *InstallerGUI {
	a := app.NewWithID("com.klakshan.program-installer")
	w := a.NewWindow("📦 Linux Program Installer")

	g := &InstallerGUI{
		app:    a,
		window: w,
		ctrl:   controller.NewInstallController(),
	}

	cfg := g.ctrl.GetConfig()
	w.Resize(fyne.NewSize(float32(cfg.WindowWidth), float32(cfg.WindowHeight)))
	w.CenterOnScreen()

	g.buildUI()
	g.wireController()
	return g
}

func (g *InstallerGUI) buildUI() {
	installTab := g.buildInstallTab()
	manageTab := g.buildManageTab()

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Install", theme.DownloadIcon(), installTab),
		container.NewTabItemWithIcon("Manage", theme.ListIcon(), manageTab),
	)
	tabs.OnSelected = func(item *container.TabItem) {
		if item.Text == "Manage" {
			g.refreshApps()
		}
	}

	settingsButton := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), g.showSettings)
	settingsButton.Importance = widget.LowImportance
	helpButton := widget.NewButtonWithIcon("Help", theme.HelpIcon(), g.showHelp)
	helpButton.Importance = widget.LowImportance

	title := canvas.NewText("Linux Program Installer", theme.Color(theme.ColorNameForeground))
	title.TextSize = 22
	title.TextStyle.Bold = true
	subtitle := canvas.NewText("AppImage & executable desktop integration", theme.Color(theme.ColorNameForeground))
	subtitle.TextSize = 12

	header := container.NewBorder(
		nil, nil,
		container.NewVBox(title, subtitle),
		container.NewHBox(settingsButton, helpButton),
	)

	content := container.NewBorder(
		container.NewVBox(container.NewPadded(header), widget.NewSeparator()),
		nil, nil, nil,
		tabs,
	)

	g.window.SetContent(content)
}

// === INSTALL TAB ===

func (g *InstallerGUI) buildInstallTab() fyne.CanvasObject {
	// Source file
	g.sourceEntry = widget.NewEntry()
	g.sourceEntry.SetPlaceHolder("Select an executable or .AppImage...")

	browseButton := widget.NewButtonWithIcon("Browse", theme.FolderOpenIcon(), g.onBrowseSource)
	browseButton.Importance = widget.MediumImportance

	sourceRow := container.NewBorder(nil, nil, nil, browseButton, g.sourceEntry)

	// Name
	g.nameEntry = widget.NewEntry()
	g.nameEntry.SetPlaceHolder("Application name shown in menus")

	// Icon row with preview
	g.iconEntry = widget.NewEntry()
	g.iconEntry.SetPlaceHolder("Optional icon image...")
	g.iconEntry.OnChanged = func(path string) { g.updateIconPreview(path) }

	g.iconPreview = canvas.NewImageFromResource(theme.FileApplicationIcon())
	g.iconPreview.FillMode = canvas.ImageFillContain
	g.iconPreview.SetMinSize(fyne.NewSize(48, 48))

	browseIconButton := widget.NewButtonWithIcon("Browse", theme.FolderOpenIcon(), g.onBrowseIcon)
	g.extractButton = widget.NewButtonWithIcon("Extract from App", theme.SearchIcon(), g.onExtractIcon)

	iconRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(browseIconButton, g.extractButton, g.iconPreview),
		g.iconEntry,
	)

	// Category / keywords / description
	g.categorySelect = widget.NewSelect(installer.Categories, nil)
	g.categorySelect.SetSelected(g.ctrl.GetConfig().LastCategory)

	g.keywordsEntry = widget.NewEntry()
	g.keywordsEntry.SetPlaceHolder("Comma separated, e.g. editor, markdown")

	g.descriptionEntry = widget.NewMultiLineEntry()
	g.descriptionEntry.SetPlaceHolder("Short description (optional)")
	g.descriptionEntry.SetMinRowsVisible(3)

	g.systemWideCheck = widget.NewCheck("Install system-wide (requires admin privileges)", nil)
	g.systemWideCheck.SetChecked(g.ctrl.GetConfig().DefaultSystemWide)

	form := widget.NewForm(
		widget.NewFormItem("Executable", sourceRow),
		widget.NewFormItem("Name", g.nameEntry),
		widget.NewFormItem("Icon", iconRow),
		widget.NewFormItem("Category", g.categorySelect),
		widget.NewFormItem("Keywords", g.keywordsEntry),
		widget.NewFormItem("Description", g.descriptionEntry),
		widget.NewFormItem("", g.systemWideCheck),
	)

	// Progress + status
	g.progressBar = widget.NewProgressBar()
	g.progressBar.Hide()
	g.statusLabel = widget.NewLabel("")

	// Log view
	g.logView = widget.NewMultiLineEntry()
	g.logView.Wrapping = fyne.TextWrapWord
	g.logView.Disable()

	// Action buttons
	g.installButton = widget.NewButtonWithIcon("Install Application", theme.ConfirmIcon(), g.onInstall)
	g.installButton.Importance = widget.HighImportance
	g.clearButton = widget.NewButtonWithIcon("Clear All", theme.ContentClearIcon(), g.clearForm)

	buttons := container.NewBorder(nil, nil, g.clearButton, g.installButton)

	return container.NewBorder(
		nil,
		container.NewVBox(g.progressBar, g.statusLabel, buttons),
		nil, nil,
		container.NewVSplit(container.NewVScroll(form), g.logView),
	)
}

func (g *InstallerGUI) onBrowseSource() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		g.sourceEntry.SetText(path)
		// Pre-fill a nicely formatted name from the file name.
		if g.nameEntry.Text == "" {
			g.nameEntry.SetText(installer.NameFromPath(path))
		}

		if info, err := appimage.Probe(path); err == nil && info.Kind != appimage.KindUnknown {
			g.setStatus(fmt.Sprintf("%s detected (%s)", info.Kind, info.Arch))
		}
	}, g.window)
}

func (g *InstallerGUI) onBrowseIcon() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		g.iconEntry.SetText(path)
	}, g.window)
}

func (g *InstallerGUI) onExtractIcon() {
	if g.sourceEntry.Text == "" {
		dialog.ShowInformation("No file selected", "Select an executable first.", g.window)
		return
	}
	if !g.busy.CompareAndSwap(false, true) {
		return
	}

	g.setWorking(true, "Extracting icon...")
	if err := g.ctrl.StartIconExtraction(g.sourceEntry.Text); err != nil {
		g.busy.Store(false)
		g.setWorking(false, "")
		dialog.ShowError(err, g.window)
	}
}

func (g *InstallerGUI) onInstall() {
	req := &installer.InstallRequest{
		SourcePath:  g.sourceEntry.Text,
		DisplayName: strings.TrimSpace(g.nameEntry.Text),
		Category:    g.categorySelect.Selected,
		Keywords:    installer.ParseKeywords(g.keywordsEntry.Text),
		IconPath:    g.iconEntry.Text,
		Description: strings.TrimSpace(g.descriptionEntry.Text),
		SystemWide:  g.systemWideCheck.Checked,
	}

	if err := req.Validate(); err != nil {
		dialog.ShowError(err, g.window)
		return
	}

	proceed := func() {
		if !g.busy.CompareAndSwap(false, true) {
			return
		}
		g.setWorking(true, "Installing...")
		if err := g.ctrl.StartInstall(req); err != nil {
			g.busy.Store(false)
			g.setWorking(false, "")
			dialog.ShowError(err, g.window)
		}
	}

	if req.SystemWide {
		dialog.ShowConfirm("System-wide Installation",
			"This installs the application for all users and requires\n"+
				"administrative privileges. Continue?",
			func(ok bool) {
				if ok {
					proceed()
				}
			}, g.window)
		return
	}
	proceed()
}

func (g *InstallerGUI) clearForm() {
	g.sourceEntry.SetText("")
	g.nameEntry.SetText("")
	g.iconEntry.SetText("")
	g.keywordsEntry.SetText("")
	g.descriptionEntry.SetText("")
	g.categorySelect.SetSelected(installer.DefaultCategory)
	g.systemWideCheck.SetChecked(false)
	g.progressBar.Hide()
	g.setStatus("")
}

func (g *InstallerGUI) updateIconPreview(path string) {
	if path == "" {
		g.iconPreview.Resource = theme.FileApplicationIcon()
		g.iconPreview.File = ""
	} else if _, err := os.Stat(path); err == nil {
		g.iconPreview.Resource = nil
		g.iconPreview.File = path
	}
	g.iconPreview.Refresh()
}

// === MANAGE TAB ===

func (g *InstallerGUI) buildManageTab() fyne.CanvasObject {
	g.appsList = widget.NewList(
		func() int {
			g.appsMutex.RLock()
			defer g.appsMutex.RUnlock()
			return len(g.apps)
		},
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil,
				widget.NewIcon(theme.FileApplicationIcon()),
				widget.NewLabel("scope"),
				widget.NewLabel("name"),
			)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			g.appsMutex.RLock()
			defer g.appsMutex.RUnlock()
			if id >= len(g.apps) {
				return
			}
			app := g.apps[id]

			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(app.DisplayName())
			row.Objects[2].(*widget.Label).SetText(scopeLabel(app.SystemWide))
		},
	)
	g.appsList.OnSelected = func(id widget.ListItemID) {
		g.appsMutex.RLock()
		defer g.appsMutex.RUnlock()
		if id < len(g.apps) {
			g.selectedApp = g.apps[id]
			g.showAppDetails(g.apps[id])
		}
	}

	refreshButton := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), g.refreshApps)

	g.detailsBox = container.NewVBox(widget.NewLabel("Select an application to see its details."))

	g.launchButton = widget.NewButtonWithIcon("Launch", theme.MediaPlayIcon(), g.onLaunch)
	g.uninstallButton = widget.NewButtonWithIcon("Uninstall", theme.DeleteIcon(), g.onUninstall)
	g.uninstallButton.Importance = widget.DangerImportance

	details := container.NewBorder(
		widget.NewLabelWithStyle("Application Details", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(g.launchButton, g.uninstallButton),
		nil, nil,
		container.NewVScroll(g.detailsBox),
	)

	split := container.NewHSplit(
		container.NewBorder(refreshButton, nil, nil, nil, g.appsList),
		details,
	)
	split.SetOffset(0.4)

	return split
}

func (g *InstallerGUI) refreshApps() {
	go func() {
		apps := g.ctrl.RefreshApps()
		fyne.Do(func() {
			g.appsMutex.Lock()
			g.apps = apps
			g.selectedApp = nil
			g.appsMutex.Unlock()
			g.appsList.UnselectAll()
			g.appsList.Refresh()
		})
	}()
}

func (g *InstallerGUI) showAppDetails(app *installer.InstalledApp) {
	g.detailsBox.Objects = nil

	scope := "User Application"
	if app.SystemWide {
		scope = "System Application"
	}

	addRow := func(label, value string) {
		if value == "" {
			return
		}
		valueLabel := widget.NewLabel(value)
		valueLabel.Wrapping = fyne.TextWrapBreak
		g.detailsBox.Add(container.NewBorder(nil, nil,
			widget.NewLabelWithStyle(label, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, valueLabel))
	}

	if iconFile := app.IconFile(); iconFile != "" {
		icon := canvas.NewImageFromFile(iconFile)
		icon.FillMode = canvas.ImageFillContain
		icon.SetMinSize(fyne.NewSize(64, 64))
		g.detailsBox.Add(container.NewCenter(icon))
	}

	addRow("Type", scope)
	addRow("Name", app.DisplayName())
	if app.Entry != nil {
		addRow("Exec", app.Entry.Exec)
		addRow("Comment", app.Entry.Comment)
		addRow("Categories", strings.Join(app.Entry.Categories, ", "))
		addRow("Keywords", strings.Join(app.Entry.Keywords, ", "))
	}
	addRow("Entry file", app.Path)

	g.detailsBox.Refresh()
}

func (g *InstallerGUI) onLaunch() {
	if g.selectedApp == nil {
		return
	}
	if err := g.ctrl.Launch(g.selectedApp); err != nil {
		dialog.ShowError(err, g.window)
	}
}

func (g *InstallerGUI) onUninstall() {
	app := g.selectedApp
	if app == nil {
		return
	}

	doUninstall := func() {
		go func() {
			err := g.ctrl.Uninstall(app)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, g.window)
					return
				}
				g.refreshApps()
			})
		}()
	}

	if g.ctrl.GetConfig().ConfirmUninstall {
		dialog.ShowConfirm("Uninstall",
			fmt.Sprintf("Remove %q from this system?", app.DisplayName()),
			func(ok bool) {
				if ok {
					doUninstall()
				}
			}, g.window)
		return
	}
	doUninstall()
}

// === CONTROLLER WIRING ===

func (g *InstallerGUI) wireController() {
	g.ctrl.SetOnProgress(func(percent int, stage string) {
		fyne.Do(func() {
			g.progressBar.SetValue(float64(percent) / 100)
			if stage != "" {
				g.statusLabel.SetText(stage)
			}
		})
	})

	g.ctrl.SetOnLogMessage(func(level controller.LogLevel, message string) {
		prefix := logPrefix(level)
		fyne.Do(func() {
			g.logView.SetText(g.logView.Text + prefix + " " + message + "\n")
			g.logView.CursorRow = strings.Count(g.logView.Text, "\n")
		})
	})

	g.ctrl.SetOnIconDone(func(iconPath string, err error) {
		g.busy.Store(false)
		fyne.Do(func() {
			g.setWorking(false, "")
			switch {
			case err != nil:
				dialog.ShowError(err, g.window)
			case iconPath == "":
				dialog.ShowInformation("No icon found",
					"The file does not contain a recognizable icon.\n"+
						"The entry will use the default system icon.", g.window)
			default:
				g.iconEntry.SetText(iconPath)
			}
		})
	})

	g.ctrl.SetOnInstallDone(func(result *installer.Result, err error) {
		g.busy.Store(false)
		fyne.Do(func() {
			g.setWorking(false, "")
			if err != nil {
				dialog.ShowError(err, g.window)
				return
			}
			dialog.ShowInformation("Success",
				"Application installed successfully!\n\n"+result.EntryPath, g.window)
			g.clearForm()
			g.refreshApps()
		})
	})

	g.ctrl.SetOnAppsChanged(func() {
		g.refreshApps()
	})
}

func logPrefix(level controller.LogLevel) string {
	switch level {
	case controller.LogWarning:
		return "⚠️"
	case controller.LogError:
		return "❌"
	default:
		return "•"
	}
}

func scopeLabel(systemWide bool) string {
	if systemWide {
		return "system"
	}
	return "user"
}

func (g *InstallerGUI) setWorking(working bool, status string) {
	if working {
		g.progressBar.SetValue(0)
		g.progressBar.Show()
		g.installButton.Disable()
		g.extractButton.Disable()
	} else {
		g.progressBar.Hide()
		g.installButton.Enable()
		g.extractButton.Enable()
	}
	g.setStatus(status)
}

func (g *InstallerGUI) setStatus(status string) {
	g.statusLabel.SetText(status)
}

// === DIALOGS ===

func (g *InstallerGUI) showSettings() {
	cfg := g.ctrl.GetConfig().Clone()

	systemWideCheck := widget.NewCheck("Default to system-wide installs", func(v bool) {
		cfg.DefaultSystemWide = v
	})
	systemWideCheck.SetChecked(cfg.DefaultSystemWide)

	confirmCheck := widget.NewCheck("Confirm before uninstalling", func(v bool) {
		cfg.ConfirmUninstall = v
	})
	confirmCheck.SetChecked(cfg.ConfirmUninstall)

	systemAppsCheck := widget.NewCheck("Show system applications in Manage", func(v bool) {
		cfg.ShowSystemApps = v
	})
	systemAppsCheck.SetChecked(cfg.ShowSystemApps)

	removeBinariesCheck := widget.NewCheck("Remove binaries on uninstall", func(v bool) {
		cfg.RemoveBinaries = v
	})
	removeBinariesCheck.SetChecked(cfg.RemoveBinaries)

	backupCheck := widget.NewCheck("Back up removed files to a zip archive", func(v bool) {
		cfg.BackupOnUninstall = v
	})
	backupCheck.SetChecked(cfg.BackupOnUninstall)

	backupDirEntry := widget.NewEntry()
	backupDirEntry.SetText(cfg.BackupDir)
	backupDirEntry.OnChanged = func(v string) { cfg.BackupDir = v }

	form := container.NewVBox(
		widget.NewLabelWithStyle("Install", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		systemWideCheck,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Uninstall", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		confirmCheck,
		removeBinariesCheck,
		backupCheck,
		container.NewBorder(nil, nil, widget.NewLabel("Backup folder:"), nil, backupDirEntry),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Manage", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		systemAppsCheck,
	)

	dialog.ShowCustomConfirm("Settings", "Save", "Cancel", form, func(save bool) {
		if !save {
			return
		}
		if err := g.ctrl.UpdateConfig(cfg); err != nil {
			dialog.ShowError(err, g.window)
		}
	}, g.window)
}

func (g *InstallerGUI) showHelp() {
	checker := installer.NewDependencyChecker()
	checker.CheckAll()

	help := widget.NewLabel(
		"1. Pick an executable or .AppImage file.\n" +
			"2. Adjust the name, icon, category and keywords.\n" +
			"3. Click Install and the app appears in your menus.\n\n" +
			"Icons are extracted from AppImages automatically; plain\n" +
			"executables are scanned for embedded images.\n\n" +
			"Files land in ~/.local/bin, ~/.local/share/applications and\n" +
			"~/.local/share/icons (or the /usr equivalents for system-wide\n" +
			"installs).\n\n" + checker.FormatStatusReport())
	help.Wrapping = fyne.TextWrapWord

	scroll := container.NewVScroll(help)
	scroll.SetMinSize(fyne.NewSize(460, 380))
	dialog.ShowCustom("Help", "Close", scroll, g.window)
}

// Run shows the window and enters the event loop.
func (g *InstallerGUI) Run() {
	g.refreshApps()
	g.window.SetOnClosed(func() {
		cfg := g.ctrl.GetConfig()
		size := g.window.Canvas().Size()
		cfg.WindowWidth = int(size.Width)
		cfg.WindowHeight = int(size.Height)
		_ = controller.SaveConfig(cfg)
		g.ctrl.Close()
	})
	g.window.ShowAndRun()
}

func main() {
	// Headless environments (CI, ssh) cannot create a window; fail with a
	// clear message instead of a driver panic.
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		fmt.Fprintln(os.Stderr, "no display found; use the CLI instead:")
		fmt.Fprintln(os.Stderr, "  program-installer help")
		os.Exit(1)
	}

	gui := NewInstallerGUI()
	gui.Run()
}
