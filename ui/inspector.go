package ui

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/systems"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Agent    *components.Agent
	Position r3.Vec
	Heading  r3.Vec
	Distance float64 // Planar distance to the player
	Cell     systems.Coord
	Flow     r3.Vec
	HasFlow  bool
	Cost     int // Traversal cost of Cell, 0 when obstacles are off
}

// Inspector renders the selected agent's state.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: inspectorSections(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	panelHeight := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range ins.sections {
		panelHeight += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	y := ins.y + padding
	title := "Agent"
	if data.Agent != nil {
		title = fmt.Sprintf("Agent #%d", data.Agent.ID)
	}
	y = r.DrawSectionHeader(ins.x+padding, y, title) + 4

	for _, sd := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sd, data, contentWidth)
	}
	return y
}

// inspectorSections builds one section per component field group, then the
// navigation state around the agent.
func inspectorSections() []SectionDescriptor {
	var sections []SectionDescriptor
	byGroup := make(map[string]int)

	for _, d := range components.AgentFieldDescriptors() {
		idx, ok := byGroup[d.Group]
		if !ok {
			idx = len(sections)
			byGroup[d.Group] = idx
			sections = append(sections, SectionDescriptor{
				ID:    d.Group,
				Title: groupTitle(d.Group),
			})
		}
		sections[idx].Fields = append(sections[idx].Fields, FieldDescriptor{
			ID:     d.ID,
			Label:  d.Label,
			Widget: WidgetText,
			TextGetter: func(data any) string {
				a := data.(InspectorData).Agent
				if a == nil {
					return "-"
				}
				return components.AgentValue(a, d)
			},
		})
	}

	sections = append(sections, SectionDescriptor{
		ID:    "navigation",
		Title: "Navigation",
		Fields: []FieldDescriptor{
			{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(data any) string {
				p := data.(InspectorData).Position
				return fmt.Sprintf("%.1f, %.1f", p.X, p.Z)
			}},
			{ID: "cell", Label: "Cell", Widget: WidgetText, TextGetter: func(data any) string {
				return data.(InspectorData).Cell.String()
			}},
			{ID: "distance", Label: "To player", Widget: WidgetText, Format: "%.1f", Getter: func(data any) float32 {
				return float32(data.(InspectorData).Distance)
			}},
			{ID: "heading", Label: "Heading", Widget: WidgetText, TextGetter: func(data any) string {
				h := data.(InspectorData).Heading
				return fmt.Sprintf("%.0f deg", math.Atan2(h.X, h.Z)*180/math.Pi)
			}},
			{ID: "flow", Label: "Flow", Widget: WidgetText, TextGetter: func(data any) string {
				d := data.(InspectorData)
				if !d.HasFlow {
					return "direct"
				}
				return fmt.Sprintf("%.2f, %.2f", d.Flow.X, d.Flow.Z)
			}},
			{ID: "cost", Label: "Cost", Widget: WidgetText, Format: "%.0f",
				Visible: func(data any) bool { return data.(InspectorData).Cost > 0 },
				Getter: func(data any) float32 {
					return float32(data.(InspectorData).Cost)
				}},
		},
	})
	return sections
}

func groupTitle(group string) string {
	switch group {
	case "identity":
		return "Identity"
	case "motion":
		return "Motion"
	case "services":
		return "Services"
	default:
		return group
	}
}
