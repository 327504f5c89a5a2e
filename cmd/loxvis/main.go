// Command loxvis runs a program to completion with aggressive GC,
// recording a snapshot of the heap's object list at every collection
// cycle, then replays those snapshots as an animation so a mark-sweep
// cycle can be watched instead of read from a text dump.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/rmay/loxvm/pkg/lang"
	"github.com/rmay/loxvm/pkg/vm"
)

const (
	screenWidth  = 960
	screenHeight = 720
	rowHeight    = 16
	ticksPerStep = 30 // advance one GC snapshot every half second at 60 TPS
)

type game struct {
	snapshots [][]vm.HeapObjectInfo
	index     int
	ticks     int
	face      *basicfont.Face
}

func (g *game) Update() error {
	if len(g.snapshots) == 0 {
		return nil
	}
	g.ticks++
	if g.ticks >= ticksPerStep {
		g.ticks = 0
		if g.index < len(g.snapshots)-1 {
			g.index++
		}
	}
	return nil
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 24, 255})

	if len(g.snapshots) == 0 {
		text.Draw(screen, "no garbage collections occurred", g.face, 12, 20, color.White)
		return
	}

	title := fmt.Sprintf("collection %d / %d", g.index+1, len(g.snapshots))
	text.Draw(screen, title, g.face, 12, 20, color.White)

	y := 48
	for i, obj := range g.snapshots[g.index] {
		fill := color.RGBA{90, 160, 90, 255} // unmarked: about to be swept
		if obj.Marked {
			fill = color.RGBA{200, 200, 60, 255} // marked: survives this cycle
		}
		label := fmt.Sprintf("#%03d %-12s %s", i, obj.Kind, obj.Summary)
		text.Draw(screen, label, g.face, 12, y, fill)
		y += rowHeight
		if y > screenHeight-16 {
			break
		}
	}
}

func main() {
	flag.Parse()
	if len(flag.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: loxvis <file.lox>")
		os.Exit(64)
	}

	source, err := os.ReadFile(flag.Args()[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\".\n", flag.Args()[0])
		os.Exit(74)
	}

	machine := vm.NewVM()
	machine.SetStressGC(true) // collect on every allocation so the visualization has plenty of cycles to show

	var snapshots [][]vm.HeapObjectInfo
	machine.SetGCHook(func(v *vm.VM) {
		snapshots = append(snapshots, v.Snapshot())
	})

	fn, err := lang.Compile(string(source), machine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(65)
	}
	machine.Interpret(fn)

	g := &game{snapshots: snapshots, face: basicfont.Face7x13}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("loxvis")
	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
