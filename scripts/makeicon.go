// +build ignore

package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		os.Args = append(os.Args, "Icon.png")
	}

	// Create a 512x512 icon with a package-box shape on teal
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))

	bgColor := color.RGBA{15, 118, 110, 255}
	boxColor := color.RGBA{217, 119, 6, 255}
	lidColor := color.RGBA{245, 158, 11, 255}
	tapeColor := color.RGBA{254, 243, 199, 255}

	// Fill background
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			img.Set(x, y, bgColor)
		}
	}

	// Box body
	for y := 200; y < 420; y++ {
		for x := 110; x < 402; x++ {
			img.Set(x, y, boxColor)
		}
	}

	// Lid
	for y := 150; y < 200; y++ {
		for x := 90; x < 422; x++ {
			img.Set(x, y, lidColor)
		}
	}

	// Vertical tape stripe
	for y := 150; y < 420; y++ {
		for x := 236; x < 276; x++ {
			img.Set(x, y, tapeColor)
		}
	}

	// Downward arrow above the box
	cx := 256
	for y := 40; y < 130; y++ {
		half := 12
		if y > 95 {
			half = 130 - y + 12
		}
		for x := cx - half; x < cx+half; x++ {
			if x >= 0 && x < 512 {
				img.Set(x, y, tapeColor)
			}
		}
	}

	f, err := os.Create(os.Args[1])
	if err != nil {
		panic(err)
	}
	defer f.Close()

	png.Encode(f, img)
}
