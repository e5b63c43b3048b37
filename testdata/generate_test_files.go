//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

func main() {
	baseDir := filepath.Dir(os.Args[0])
	if len(os.Args) > 1 {
		baseDir = os.Args[1]
	}

	fmt.Println("📁 Generating test files...")

	createExecutable(baseDir)
	createFakeAppImage(baseDir)
	createIcon(baseDir)
	createDesktopEntry(baseDir)

	fmt.Println("✅ All test files created!")
}

// createExecutable writes a plain shell script marked executable.
func createExecutable(baseDir string) {
	path := filepath.Join(baseDir, "hello-tool")
	script := "#!/bin/sh\necho \"hello from hello-tool\"\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		panic(err)
	}
	fmt.Println("  •", path)
}

// createFakeAppImage writes a file with an AppImage type 2 header followed
// by an embedded PNG, so both detection and icon sniffing have something
// to find. It is not runnable.
func createFakeAppImage(baseDir string) {
	path := filepath.Join(baseDir, "fake-app-1.0.AppImage")

	header := make([]byte, 16)
	copy(header, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 'A', 'I', 0x02})

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 128, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	f.Write(header)
	f.Write(make([]byte, 256)) // padding before the embedded image
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
	os.Chmod(path, 0755)
	fmt.Println("  •", path)
}

func createIcon(baseDir string) {
	path := filepath.Join(baseDir, "hello-tool.png")

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{30, 144, 255, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
	fmt.Println("  •", path)
}

func createDesktopEntry(baseDir string) {
	path := filepath.Join(baseDir, "hello-tool.desktop")
	entry := `[Desktop Entry]
Name=Hello Tool
Exec=/home/user/.local/bin/hello-tool
Type=Application
Icon=hello-tool
Categories=Utility;
Keywords=hello;demo;
Comment=Sample entry for manual testing
`
	if err := os.WriteFile(path, []byte(entry), 0644); err != nil {
		panic(err)
	}
	fmt.Println("  •", path)
}
