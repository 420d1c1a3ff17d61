package main

import "image/color"

func ebiteColorBlack() color.Color { return color.Black }
func ebiteColorGreen() color.Color { return color.RGBA{R: 0x20, G: 0xe0, B: 0x40, A: 0xff} }
func ebiteColorAmber() color.Color { return color.RGBA{R: 0xe0, G: 0x90, B: 0x10, A: 0xff} }
