/*
 * onesmallstep - graphical register/DSKY panel
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// agcdisplay is an optional graphical alternative to the DSKY's
// terminal TUI: an ebiten.Game running its own CPU and painting the
// accumulator/register file and DSKY digits as fixed-width glyph grids,
// grounded on the teacher pack's ebiten App (Update/Draw/Layout) idiom
// from user-none-eMkIII/ui/app.go.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	core "github.com/onesmallstep/agc/core"
	peripherals "github.com/onesmallstep/agc/peripherals"
	rope "github.com/onesmallstep/agc/rope"
)

const (
	screenWidth  = 480
	screenHeight = 240

	// mctsPerFrame paces the embedded CPU against ebiten's ~60Hz tick
	// using the same elapsed-time/11.7 rule as the standalone host
	// loop, but pre-computed for a fixed 60Hz frame interval.
	mctsPerFrame = (1000000 / 60) / 11.7
)

type display struct {
	cpu   *core.CPU
	dsky  *peripherals.DSKY
	owed  float64
}

func (d *display) Update() error {
	d.owed += mctsPerFrame
	for d.owed > 0 {
		d.owed -= float64(d.cpu.Step())
	}
	return nil
}

func (d *display) Draw(screen *ebiten.Image) {
	screen.Fill(ebiteColorBlack())

	face := basicfont.Face7x13
	text.Draw(screen, fmt.Sprintf("A  %05o", d.cpu.A()), face, 16, 24, ebiteColorGreen())
	text.Draw(screen, fmt.Sprintf("L  %05o", d.cpu.L()), face, 16, 44, ebiteColorGreen())
	text.Draw(screen, fmt.Sprintf("Q  %05o", d.cpu.Q()), face, 16, 64, ebiteColorGreen())
	text.Draw(screen, fmt.Sprintf("Z  %05o", d.cpu.Z()), face, 16, 84, ebiteColorGreen())

	text.Draw(screen, "DSKY", face, 220, 24, ebiteColorAmber())
	for i, line := range d.dsky.DisplayLines() {
		text.Draw(screen, line, face, 220, 44+16*i, ebiteColorAmber())
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("cycles: %d", d.cpu.TotalCycles()))
}

func (d *display) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: agcdisplay <rope-image>")
		os.Exit(1)
	}

	program, err := rope.Load(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	cpu := core.New()
	cpu.LoadROM(program)

	dsky := peripherals.NewDSKY("")
	downrupt := peripherals.NewDownrupt("")
	cpu.SetPeripherals(dsky, downrupt)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("onesmallstep")

	if err := ebiten.RunGame(&display{cpu: cpu, dsky: dsky}); err != nil {
		log.Fatal(err)
	}
}
