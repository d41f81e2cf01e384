package components

// AnimatorHandle identifies a cloned animator in the animation service. Zero means none.
type AnimatorHandle uint32

// BodyHandle identifies a body in the physics service. Zero means none.
type BodyHandle uint32

// Agent is an autonomous hostile actor steered by the flow field.
type Agent struct {
	ID          uint32  // Monotonic spawn identifier
	Seed        uint32  // Drives wobble phase and speed variation
	GroundY     float64 // Height the agent is pinned to
	SpeedFactor float64 // Multiplier on base speed, in [0.8, 1.2)
	Animator    AnimatorHandle
	Body        BodyHandle
}

// SpeedFactorForSeed maps a seed to its fixed speed multiplier.
func SpeedFactorForSeed(seed uint32) float64 {
	return 0.8 + float64(seed%100)/100.0*0.4
}
