package components

import "fmt"

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID     string // Unique identifier
	Label  string // Display name
	Format string // Printf format (e.g., "%.2f")
	Group  string // Logical grouping
}

// AgentFieldDescriptors returns metadata for Agent fields.
// Field IDs must match cases in AgentValue().
func AgentFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "id", Label: "ID", Format: "%d", Group: "identity"},
		{ID: "seed", Label: "Seed", Format: "%d", Group: "identity"},
		{ID: "speed", Label: "Speed x", Format: "%.2f", Group: "motion"},
		{ID: "ground", Label: "Ground", Format: "%.2f", Group: "motion"},
		{ID: "animated", Label: "Animated", Format: "%t", Group: "services"},
		{ID: "body", Label: "Body", Format: "%d", Group: "services"},
	}
}

// AgentValue formats a single descriptor's value for a.
func AgentValue(a *Agent, d FieldDescriptor) string {
	switch d.ID {
	case "id":
		return fmt.Sprintf(d.Format, a.ID)
	case "seed":
		return fmt.Sprintf(d.Format, a.Seed)
	case "speed":
		return fmt.Sprintf(d.Format, a.SpeedFactor)
	case "ground":
		return fmt.Sprintf(d.Format, a.GroundY)
	case "animated":
		return fmt.Sprintf(d.Format, a.Animator != 0)
	case "body":
		return fmt.Sprintf(d.Format, a.Body)
	}
	return ""
}
