// Obstacle and flow field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/flowpreview
//
// Left click moves the flow target. The YAML panel mirrors the
// flow_field.obstacles section of config.yaml.
package main

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/config"
	"github.com/Dong-David/the-last-echo/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30

	gridSize = 64 // Cells per side, centred on the origin
	cellPx   = float32(previewSize) / gridSize
)

// PreviewParams holds the obstacle and solver settings under edit.
type PreviewParams struct {
	Noise   systems.NoiseCostParams
	Horizon int
	Arrows  bool
}

func defaultParams() PreviewParams {
	cfg := config.Defaults()
	o := cfg.FlowField.Obstacles
	return PreviewParams{
		Noise: systems.NoiseCostParams{
			Seed:       o.Seed,
			Frequency:  o.Frequency,
			Octaves:    o.Octaves,
			Threshold:  o.Threshold,
			RoughBand:  o.RoughBand,
			RoughCost:  o.RoughCost,
			Impassable: cfg.FlowField.Impassable,
			Clearing:   o.Clearing,
		},
		Horizon: cfg.FlowField.Horizon,
		Arrows:  true,
	}
}

// preview is the solved field for one set of params.
type preview struct {
	costs   []int
	dirs    []r3.Vec
	reached int
	blocked int
	work    int
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Obstacle & Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()
	target := systems.Coord{}

	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var current preview
	needsRegen := true

	for !rl.WindowShouldClose() {
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			m := rl.GetMousePosition()
			if m.X >= 10 && m.Y >= 10 && m.X < 10+previewSize && m.Y < 10+previewSize {
				target = systems.Coord{
					X: int((m.X-10)/cellPx) - gridSize/2,
					Z: int((m.Y-10)/cellPx) - gridSize/2,
				}
				needsRegen = true
			}
		}

		if needsRegen {
			current = solve(params, target)
			updateTexture(texture, current.costs, params.Noise.Impassable)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		if params.Arrows {
			drawArrows(current.dirs)
		}
		tx, ty := cellCenter(target)
		rl.DrawCircleV(rl.Vector2{X: tx, Y: ty}, cellPx*0.6, rl.Red)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		total := gridSize * gridSize
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Blocked: %.1f%%  Reached: %.1f%%  Work: %d cells",
			100*float32(current.blocked)/float32(total),
			100*float32(current.reached)/float32(total),
			current.work), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Target: %s", target), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Obstacle Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		n := &params.Noise
		if v := slider(&panelY, panelX, "Frequency (noise per cell)", fmt.Sprintf("%.3f", n.Frequency), float32(n.Frequency), 0.01, 0.3); float64(v) != n.Frequency {
			n.Frequency = float64(v)
			needsRegen = true
		}
		if v := int(slider(&panelY, panelX, "Octaves", fmt.Sprintf("%d", n.Octaves), float32(n.Octaves), 1, 6) + 0.5); v != n.Octaves {
			n.Octaves = v
			needsRegen = true
		}
		if v := slider(&panelY, panelX, "Threshold (higher = fewer walls)", fmt.Sprintf("%.2f", n.Threshold), float32(n.Threshold), 0.4, 1.0); float64(v) != n.Threshold {
			n.Threshold = float64(v)
			needsRegen = true
		}
		if v := slider(&panelY, panelX, "Rough band", fmt.Sprintf("%.2f", n.RoughBand), float32(n.RoughBand), 0, 0.3); float64(v) != n.RoughBand {
			n.RoughBand = float64(v)
			needsRegen = true
		}
		if v := int(slider(&panelY, panelX, "Rough cost", fmt.Sprintf("%d", n.RoughCost), float32(n.RoughCost), 1, 20) + 0.5); v != n.RoughCost {
			n.RoughCost = v
			needsRegen = true
		}
		if v := int(slider(&panelY, panelX, "Clearing (open cells at origin)", fmt.Sprintf("%d", n.Clearing), float32(n.Clearing), 0, 10) + 0.5); v != n.Clearing {
			n.Clearing = v
			needsRegen = true
		}
		if v := int64(slider(&panelY, panelX, "Seed", fmt.Sprintf("%d", n.Seed), float32(n.Seed), 0, 9999)); v != n.Seed {
			n.Seed = v
			needsRegen = true
		}

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		if v := int(slider(&panelY, panelX, "Horizon (solver reach)", fmt.Sprintf("%d", params.Horizon), float32(params.Horizon), 4, 64) + 0.5); v != params.Horizon {
			params.Horizon = v
			needsRegen = true
		}
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(params.Arrows, "Hide Arrows", "Show Arrows")) {
			params.Arrows = !params.Arrows
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Target") {
			target = systems.Coord{}
			needsRegen = true
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			n.Seed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			target = systems.Coord{}
			needsRegen = true
		}
		panelY += 45

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 22
		yaml := obstaclesYAML(params)
		for _, line := range yaml {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Click to move target | Press C to copy YAML", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range yaml {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

// slider draws a captioned slider at *y and advances y past it.
func slider(y *float32, x float32, caption, value string, current, lo, hi float32) float32 {
	rl.DrawText(caption, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 18},
		"", "",
		current, lo, hi,
	)
	rl.DrawText(value, int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 30
	return v
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func obstaclesYAML(p PreviewParams) []string {
	n := p.Noise
	return []string{
		"flow_field:",
		fmt.Sprintf("  horizon: %d", p.Horizon),
		"  obstacles:",
		"    enabled: true",
		fmt.Sprintf("    seed: %d", n.Seed),
		fmt.Sprintf("    frequency: %.3f", n.Frequency),
		fmt.Sprintf("    octaves: %d", n.Octaves),
		fmt.Sprintf("    threshold: %.2f", n.Threshold),
		fmt.Sprintf("    rough_band: %.2f", n.RoughBand),
		fmt.Sprintf("    rough_cost: %d", n.RoughCost),
		fmt.Sprintf("    clearing: %d", n.Clearing),
	}
}

// solve runs one flow field recompute toward target on a unit grid and
// samples the preview window.
func solve(p PreviewParams, target systems.Coord) preview {
	costs := systems.NewNoiseCostSource(p.Noise)
	ff := systems.NewFlowField(systems.NewGrid(1), systems.FlowFieldParams{
		Horizon:    p.Horizon,
		Impassable: p.Noise.Impassable,
	})
	ff.SetCostSource(costs)
	ff.Recompute(r3.Vec{X: float64(target.X), Z: float64(target.Z)})

	out := preview{
		costs: make([]int, gridSize*gridSize),
		dirs:  make([]r3.Vec, gridSize*gridSize),
		work:  ff.LastWork(),
	}
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			c := systems.Coord{X: col - gridSize/2, Z: row - gridSize/2}
			i := row*gridSize + col
			out.costs[i] = costs.CostAt(c)
			if out.costs[i] >= p.Noise.Impassable {
				out.blocked++
			}
			if cell, ok := ff.Lookup(c); ok && cell.BestCost < systems.Unreached {
				out.reached++
				out.dirs[i] = cell.Direction
			}
		}
	}
	return out
}

func cellCenter(c systems.Coord) (float32, float32) {
	return 10 + (float32(c.X+gridSize/2)+0.5)*cellPx,
		10 + (float32(c.Z+gridSize/2)+0.5)*cellPx
}

func drawArrows(dirs []r3.Vec) {
	for i, d := range dirs {
		if d == (r3.Vec{}) {
			continue
		}
		c := systems.Coord{X: i%gridSize - gridSize/2, Z: i/gridSize - gridSize/2}
		x, y := cellCenter(c)
		tip := rl.Vector2{X: x + float32(d.X)*cellPx*0.45, Y: y + float32(d.Z)*cellPx*0.45}
		rl.DrawLineV(rl.Vector2{X: x, Y: y}, tip, rl.Fade(rl.SkyBlue, 0.9))
	}
}

// updateTexture updates the GPU texture from the cost grid.
func updateTexture(texture rl.Texture2D, costs []int, impassable int) {
	pixels := make([]color.RGBA, len(costs))
	for i, cost := range costs {
		switch {
		case cost >= impassable:
			pixels[i] = color.RGBA{R: 30, G: 24, B: 24, A: 255}
		case cost > systems.OpenCost:
			pixels[i] = color.RGBA{R: 150, G: 110, B: 60, A: 255}
		default:
			pixels[i] = color.RGBA{R: 62, G: 82, B: 58, A: 255}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
