package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/camera"
	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/game"
	"github.com/Dong-David/the-last-echo/systems"
)

const (
	minimapSize   = 220
	pickRadiusPx  = 24
	agentHeight   = 1.8
	flowDrawLimit = 20 // Ring radius beyond which the flow overlay is clipped
	controlsText  = "WASD move | F fire | wheel zoom | V view | RMB orbit | L lock | Space pause | ,/. speed | Tab overlays | P perf | M map | I inspector"
)

var (
	tileColorA  = rl.Color{R: 58, G: 66, B: 54, A: 255}
	tileColorB  = rl.Color{R: 66, G: 74, B: 60, A: 255}
	agentColor  = rl.Color{R: 170, G: 60, B: 55, A: 255}
	playerColor = rl.Color{R: 70, G: 130, B: 200, A: 255}
	beamColor   = rl.Color{R: 255, G: 80, B: 60, A: 255}
	flowColor   = rl.Color{R: 120, G: 200, B: 230, A: 200}
	wallColor   = rl.Color{R: 30, G: 24, B: 24, A: 255}
	roughColor  = rl.Color{R: 150, G: 110, B: 60, A: 180}
)

// Viewer renders a Game with raylib and feeds it keyboard and mouse input.
type Viewer struct {
	game  *game.Game
	input *RaylibInput

	overlays  *OverlayRegistry
	hud       *HUD
	perf      *PerfPanel
	tuning    *TuningPanel
	controls  *ControlsPanel
	combat    *CombatPanel
	inspector *Inspector
	minimap   *camera.View

	tileFilter *ecs.Filter2[components.Transform, components.Tile]
	beamFilter *ecs.Filter2[components.Transform, components.Beam]
	agentMap   *ecs.Map[components.Agent]

	selected      ecs.Entity
	hasSelection  bool
	showPerf      bool
	showMinimap   bool
	showInspector bool

	screenW, screenH int32
}

// NewViewer creates a viewer for g. The window must already be open.
func NewViewer(g *game.Game, in *RaylibInput) *Viewer {
	w := g.Scene().World()
	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	v := &Viewer{
		game:          g,
		input:         in,
		overlays:      NewOverlayRegistry(),
		hud:           NewHUD(),
		perf:          NewPerfPanel(10, 100),
		tuning:        NewTuningPanel(float32(screenW-330), float32(screenH-tuningPanelHeight-40), 320),
		controls:      NewControlsPanel(10, 100, 220),
		combat:        NewCombatPanel(screenW-230, minimapSize+20, 220),
		inspector:     NewInspector(screenW-230, minimapSize+150, 220),
		minimap:       camera.NewView(minimapSize, minimapSize),
		tileFilter:    ecs.NewFilter2[components.Transform, components.Tile](w),
		beamFilter:    ecs.NewFilter2[components.Transform, components.Beam](w),
		agentMap:      ecs.NewMap[components.Agent](w),
		showMinimap:   true,
		showInspector: true,
		screenW:       screenW,
		screenH:       screenH,
	}
	return v
}

// Frame polls input, advances the simulation and draws one frame.
func (v *Viewer) Frame() {
	v.input.Poll()
	v.handleInput()
	v.game.Update()
	v.game.RecordFrame()
	v.draw()
}

// handleInput processes viewer keys and mouse picking.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.game.SetPaused(!v.game.Paused())
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		v.game.SetSpeed(v.game.Speed() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.game.SetSpeed(v.game.Speed() + 1)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPerf = !v.showPerf
	}
	if rl.IsKeyPressed(rl.KeyM) {
		v.showMinimap = !v.showMinimap
	}
	if rl.IsKeyPressed(rl.KeyI) {
		v.showInspector = !v.showInspector
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		v.overlays.HandleKeyPress(key)
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		if !rl.CheckCollisionPointRec(mouse, v.tuning.Bounds()) {
			v.pick(mouse)
		}
	}

}

// dropStaleSelection clears the selection once the agent is culled or
// eliminated.
func (v *Viewer) dropStaleSelection() {
	if v.hasSelection && (!v.game.Scene().IsValid(v.selected) || !v.agentMap.Has(v.selected)) {
		v.hasSelection = false
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h

	v.game.Camera().SetViewport(float64(w), float64(h))
	v.tuning.SetPosition(float32(w-330), float32(h-tuningPanelHeight-40))
	v.combat.SetPosition(w-230, minimapSize+20)
	v.inspector.SetPosition(w-230, minimapSize+150)
}

// pick selects the agent drawn nearest to the cursor.
func (v *Viewer) pick(mouse rl.Vector2) {
	cam := v.camera3D()
	best := float32(pickRadiusPx * pickRadiusPx)
	v.hasSelection = false

	for _, e := range v.game.Population().Agents() {
		t := v.game.Scene().Transform(e)
		if t == nil {
			continue
		}
		s := rl.GetWorldToScreen(vec3(r3.Add(t.Position, r3.Vec{Y: agentHeight / 2})), cam)
		dx, dy := s.X-mouse.X, s.Y-mouse.Y
		if d := dx*dx + dy*dy; d < best {
			best = d
			v.selected = e
			v.hasSelection = true
		}
	}
}

func (v *Viewer) camera3D() rl.Camera3D {
	o := v.game.Camera()
	return rl.Camera3D{
		Position:   vec3(o.Position()),
		Target:     vec3(o.FocalPoint()),
		Up:         vec3(o.Up()),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

func (v *Viewer) draw() {
	v.dropStaleSelection()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 20, B: 24, A: 255})

	rl.BeginMode3D(v.camera3D())
	v.drawTiles()
	v.drawNavigationOverlays()
	v.drawAgents()
	v.drawPlayer()
	v.drawBeams()
	v.drawRings()
	rl.EndMode3D()

	if v.showMinimap {
		v.drawMinimap()
	}
	v.drawPanels()

	rl.EndDrawing()
}

func (v *Viewer) drawTiles() {
	cell := float32(v.game.Grid().CellSize)
	outline := v.overlays.IsEnabled(OverlayTileGrid)

	q := v.tileFilter.Query()
	for q.Next() {
		t, tile := q.Get()
		color := tileColorA
		if (tile.X+tile.Z)%2 == 0 {
			color = tileColorB
		}
		pos := vec3(t.Position)
		rl.DrawCube(pos, cell, 0.5, cell, color)
		if outline {
			rl.DrawCubeWires(pos, cell, 0.5, cell, rl.Fade(rl.Black, 0.4))
		}
	}

	if v.overlays.IsEnabled(OverlayStreamRing) {
		st := v.game.Streamer()
		side := float32(2*st.Radius()+1) * cell
		center := v.game.Grid().ToWorld(st.Center(), v.game.Config().Population.GroundY)
		rl.DrawCubeWires(vec3(center), side, 0.1, side, rl.Yellow)
	}
}

// ringCells calls fn for every cell in the streamed ring, clipped to limit.
func (v *Viewer) ringCells(limit int, fn func(c systems.Coord)) {
	st := v.game.Streamer()
	center := st.Center()
	r := min(st.Radius(), limit)
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			fn(systems.Coord{X: center.X + dx, Z: center.Z + dz})
		}
	}
}

func (v *Viewer) drawNavigationOverlays() {
	grid := v.game.Grid()
	cell := grid.CellSize
	ground := v.game.Config().Population.GroundY + 0.02

	if v.overlays.IsEnabled(OverlayFlowField) {
		v.ringCells(flowDrawLimit, func(c systems.Coord) {
			dir, ok := v.game.FlowDirection(c)
			if !ok || r3.Norm(dir) == 0 {
				return
			}
			start := grid.ToWorld(c, ground)
			end := r3.Add(start, r3.Scale(0.4*cell, dir))
			rl.DrawLine3D(vec3(start), vec3(end), flowColor)
			rl.DrawSphere(vec3(end), 0.06, flowColor)
		})
	}

	costs := v.game.Costs()
	if costs == nil || !v.overlays.IsEnabled(OverlayObstacles) {
		return
	}
	impassable := v.game.Config().FlowField.Impassable
	v.ringCells(v.game.Streamer().Radius(), func(c systems.Coord) {
		cost := costs.CostAt(c)
		switch {
		case cost >= impassable:
			rl.DrawCube(vec3(grid.ToWorld(c, ground+0.5)), float32(cell), 1, float32(cell), wallColor)
		case cost > 1:
			rl.DrawCube(vec3(grid.ToWorld(c, ground)), float32(cell), 0.05, float32(cell), roughColor)
		}
	})
}

func (v *Viewer) drawAgents() {
	headings := v.overlays.IsEnabled(OverlayHeadings)
	separation := v.overlays.IsEnabled(OverlaySeparation)
	sepRadius := float32(v.game.SteeringParams().SeparationRadius)

	for _, e := range v.game.Population().Agents() {
		t := v.game.Scene().Transform(e)
		if t == nil {
			continue
		}
		color := agentColor
		if v.hasSelection && e == v.selected {
			color = rl.Yellow
		}
		pos := vec3(t.Position)
		rl.DrawCylinder(pos, 0.3, 0.35, agentHeight, 8, color)

		if headings {
			head := r3.Add(t.Position, r3.Vec{Y: agentHeight * 0.6})
			tip := r3.Add(head, r3.Scale(0.8, systems.Facing(t.Rotation)))
			rl.DrawLine3D(vec3(head), vec3(tip), rl.White)
		}
		if separation {
			rl.DrawCircle3D(pos, sepRadius, rl.NewVector3(1, 0, 0), 90, rl.Fade(rl.SkyBlue, 0.6))
		}
	}
}

func (v *Viewer) drawPlayer() {
	p := v.game.Player()
	scene := v.game.Scene()

	if gun := scene.Transform(p.Gun()); gun != nil {
		s := float32(gun.Scale.X)
		rl.DrawCube(vec3(gun.Position), s, s, 3*s, rl.DarkGray)
	}
	if p.FirstPerson() {
		return
	}

	t := scene.Transform(p.Entity())
	if t == nil {
		return
	}
	rl.DrawCylinder(vec3(t.Position), 0.3, 0.3, agentHeight, 10, playerColor)
	if v.overlays.IsEnabled(OverlayHeadings) {
		head := r3.Add(t.Position, r3.Vec{Y: agentHeight * 0.6})
		tip := r3.Add(head, r3.Scale(1.2, systems.Facing(t.Rotation)))
		rl.DrawLine3D(vec3(head), vec3(tip), rl.SkyBlue)
	}
}

func (v *Viewer) drawBeams() {
	q := v.beamFilter.Query()
	for q.Next() {
		t, beam := q.Get()
		half := r3.Scale(beam.Length/2, systems.Facing(t.Rotation))
		rl.DrawLine3D(vec3(r3.Sub(t.Position, half)), vec3(r3.Add(t.Position, half)), beamColor)
	}
}

func (v *Viewer) drawRings() {
	player := v.game.Player().Position()
	center := vec3(r3.Vec{X: player.X, Y: v.game.Config().Population.GroundY + 0.05, Z: player.Z})
	axis := rl.NewVector3(1, 0, 0)

	if v.overlays.IsEnabled(OverlayPopRings) {
		pop := v.game.Population()
		rl.DrawCircle3D(center, float32(pop.SpawnDistance()), axis, 90, rl.Green)
		rl.DrawCircle3D(center, float32(pop.DespawnDistance()), axis, 90, rl.Red)
	}
	if v.overlays.IsEnabled(OverlayWeaponRange) {
		rl.DrawCircle3D(center, float32(v.game.Config().Weapon.Range), axis, 90, rl.Orange)
	}
}

// drawMinimap draws a top-down map of the streamed ring in the top-right
// corner.
func (v *Viewer) drawMinimap() {
	originX := float32(v.screenW - minimapSize - 10)
	originY := float32(10)

	st := v.game.Streamer()
	cell := float32(v.game.Grid().CellSize)
	player := v.game.Player().Position()

	m := v.minimap
	m.Follow(float32(player.X), float32(player.Z))
	m.SetZoom(minimapSize / (float32(2*st.Radius()+2) * cell))

	rl.DrawRectangle(int32(originX), int32(originY), minimapSize, minimapSize, rl.Color{R: 10, G: 12, B: 14, A: 230})
	rl.BeginScissorMode(int32(originX), int32(originY), minimapSize, minimapSize)

	toScreen := func(p r3.Vec) rl.Vector2 {
		x, y := m.WorldToScreen(float32(p.X), float32(p.Z))
		return rl.Vector2{X: originX + x, Y: originY + y}
	}

	side := cell * m.Zoom
	q := v.tileFilter.Query()
	for q.Next() {
		t, _ := q.Get()
		s := toScreen(t.Position)
		rl.DrawRectangleV(rl.Vector2{X: s.X - side/2, Y: s.Y - side/2}, rl.Vector2{X: side, Y: side}, tileColorA)
	}

	for _, e := range v.game.Population().Agents() {
		if t := v.game.Scene().Transform(e); t != nil && m.IsVisible(float32(t.Position.X), float32(t.Position.Z), 1) {
			color := agentColor
			if v.hasSelection && e == v.selected {
				color = rl.Yellow
			}
			rl.DrawCircleV(toScreen(t.Position), 2.5, color)
		}
	}

	bq := v.beamFilter.Query()
	for bq.Next() {
		t, beam := bq.Get()
		half := r3.Scale(beam.Length/2, systems.Facing(t.Rotation))
		rl.DrawLineV(toScreen(r3.Sub(t.Position, half)), toScreen(r3.Add(t.Position, half)), beamColor)
	}

	ps := toScreen(player)
	rl.DrawCircleV(ps, 3.5, playerColor)
	look := v.game.Camera().Forward()
	lookLen := math.Hypot(look.X, look.Z)
	if lookLen > 0 {
		tip := rl.Vector2{X: ps.X + float32(look.X/lookLen)*12, Y: ps.Y + float32(look.Z/lookLen)*12}
		rl.DrawLineV(ps, tip, rl.SkyBlue)
	}

	rl.EndScissorMode()
	rl.DrawRectangleLines(int32(originX), int32(originY), minimapSize, minimapSize, rl.Gray)
}

func (v *Viewer) drawPanels() {
	s := v.game.Stats()

	v.hud.Draw(HUDData{
		Title:        "The Last Echo",
		ActiveChunks: s.ActiveChunks,
		RenderRadius: s.RenderRadius,
		ActiveAgents: s.ActiveAgents,
		AgentCap:     s.AgentCap,
		FlowCells:    s.FlowCells,
		FlowBusy:     s.FlowBusy,
		Tick:         s.Tick,
		SimTime:      s.SimTime,
		Speed:        v.game.Speed(),
		FPS:          rl.GetFPS(),
		Paused:       v.game.Paused(),
		FirstPerson:  s.FirstPerson,
		CameraLocked: v.input.LockCamera(),
	})

	y := int32(100)
	if v.controls.IsVisible() {
		y = v.controls.Draw(v.overlays) + 10
	}
	if v.showPerf {
		v.perf.SetPosition(10, y)
		v.perf.Draw(v.game.PerfStats(), v.game.Registry())
	}

	v.combat.Draw(CombatData{
		Shots:       s.Shots,
		Hits:        s.Hits,
		Eliminated:  s.Eliminated,
		Spawned:     s.Spawned,
		Despawned:   s.Despawned,
		LiveEffects: s.LiveEffects,
	})

	if v.showInspector && v.hasSelection {
		v.inspector.Draw(v.inspectorData(s.PlayerPosition))
	}

	tuned := v.tuning.Draw(TuningValues{
		PlayerSpeed:        s.PlayerSpeed,
		BaseRenderDistance: s.BaseRenderDistance,
		ZoomInfluence:      s.ZoomInfluence,
		StepsPerUpdate:     v.game.Speed(),
		Paused:             v.game.Paused(),
	})
	v.applyTuning(s, tuned)

	v.hud.DrawControls(v.screenH, controlsText)
}

func (v *Viewer) applyTuning(s game.Stats, t TuningValues) {
	if t.PlayerSpeed != s.PlayerSpeed {
		v.game.SetPlayerSpeed(t.PlayerSpeed)
	}
	if t.BaseRenderDistance != s.BaseRenderDistance {
		v.game.SetBaseRenderDistance(t.BaseRenderDistance)
	}
	if t.ZoomInfluence != s.ZoomInfluence {
		v.game.SetZoomInfluence(t.ZoomInfluence)
	}
	if t.StepsPerUpdate != v.game.Speed() {
		v.game.SetSpeed(t.StepsPerUpdate)
	}
	if t.Paused != v.game.Paused() {
		v.game.SetPaused(t.Paused)
	}
}

func (v *Viewer) inspectorData(player r3.Vec) InspectorData {
	data := InspectorData{Agent: v.agentMap.Get(v.selected)}
	t := v.game.Scene().Transform(v.selected)
	if t == nil {
		return data
	}
	data.Position = t.Position
	data.Heading = systems.Facing(t.Rotation)
	data.Distance = math.Hypot(t.Position.X-player.X, t.Position.Z-player.Z)
	data.Cell = v.game.Grid().ToCell(t.Position)
	data.Flow, data.HasFlow = v.game.FlowDirection(data.Cell)
	if costs := v.game.Costs(); costs != nil {
		data.Cost = costs.CostAt(data.Cell)
	}
	return data
}

func vec3(p r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(p.X), float32(p.Y), float32(p.Z))
}
