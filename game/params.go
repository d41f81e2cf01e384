package game

import (
	"github.com/Dong-David/the-last-echo/camera"
	"github.com/Dong-David/the-last-echo/config"
	"github.com/Dong-David/the-last-echo/systems"
)

// Systems never read the global config. These builders copy the loaded
// values into each system's typed params.

func streamParams(cfg *config.Config) systems.StreamParams {
	s := cfg.Streaming
	return systems.StreamParams{
		BaseRadius:      s.BaseRadius,
		ZoomInfluence:   s.ZoomInfluence,
		MinRadius:       s.MinRadius,
		MaxRadius:       s.MaxRadius,
		TileOffsetY:     s.TileOffsetY,
		TileScale:       s.TileScale,
		AmbushChance:    s.AmbushChance,
		AmbushExclusion: s.AmbushExclusion,
		GroundY:         cfg.Population.GroundY,
	}
}

func agentBodyParams(cfg *config.Config) systems.AgentBodyParams {
	b := cfg.AgentBody
	return systems.AgentBodyParams{
		Radius:      b.Radius,
		HalfHeight:  b.HalfHeight,
		Friction:    b.Friction,
		Restitution: b.Restitution,
	}
}

func populationParams(cfg *config.Config) systems.PopulationParams {
	p := cfg.Population
	return systems.PopulationParams{
		MaxAgents:     p.MaxAgents,
		SpawnInterval: p.SpawnInterval,
		RingScale:     p.RingScale,
		DespawnMargin: p.DespawnMargin,
		SpawnMargin:   p.SpawnMargin,
		GroundY:       p.GroundY,
		AnimationClip: p.AnimationClip,
		Body:          agentBodyParams(cfg),
	}
}

func flowFieldParams(cfg *config.Config) systems.FlowFieldParams {
	f := cfg.FlowField
	return systems.FlowFieldParams{
		Horizon:       f.Horizon,
		Impassable:    f.Impassable,
		PruneDistance: f.PruneDistance,
	}
}

func noiseCostParams(cfg *config.Config) systems.NoiseCostParams {
	o := cfg.FlowField.Obstacles
	return systems.NoiseCostParams{
		Seed:       o.Seed,
		Frequency:  o.Frequency,
		Octaves:    o.Octaves,
		Threshold:  o.Threshold,
		RoughBand:  o.RoughBand,
		RoughCost:  o.RoughCost,
		Impassable: cfg.FlowField.Impassable,
		Clearing:   o.Clearing,
	}
}

func steeringParams(cfg *config.Config) systems.SteeringParams {
	s := cfg.Steering
	return systems.SteeringParams{
		BaseSpeed:        s.BaseSpeed,
		StopDistance:     s.StopDistance,
		TurnRate:         s.TurnRate,
		WobbleFrequency:  s.WobbleFrequency,
		WobbleAmplitude:  s.WobbleAmplitude,
		WobbleWeight:     s.WobbleWeight,
		SeparationRadius: s.SeparationRadius,
		SeparationWeight: s.SeparationWeight,
	}
}

func playerParams(cfg *config.Config) systems.PlayerParams {
	p := systems.DefaultPlayerParams()
	pc, cc := cfg.Player, cfg.Camera

	p.Speed = pc.Speed
	p.TurnRate = pc.TurnRate
	p.BobRate = pc.BobRate
	p.BobBlendRate = pc.BobBlendRate
	p.BobAmplitude = pc.BobAmplitude
	p.BobAmplitudeFP = pc.BobAmplitudeFP
	p.FocusHeight = pc.FocusHeight
	p.EyeHeight = pc.EyeHeight
	p.FirstPersonScale = pc.FPScale

	p.ThirdPersonDistance = cc.LockedDistance
	p.FirstPersonDistance = cc.FirstPersonDistance
	p.FirstPersonEnter = cc.FirstPersonEnter
	p.LockedMinPitch = cc.LockedMinPitch
	p.ScrollScale = cc.ScrollScale

	p.Body = agentBodyParams(cfg)
	return p
}

func weaponParams(cfg *config.Config) systems.WeaponParams {
	p := systems.DefaultWeaponParams()
	w := cfg.Weapon

	p.MuzzleHeight = w.MuzzleHeight
	p.Range = w.Range
	p.HitRadius = w.HitRadius
	p.TargetHeight = w.TargetHeight
	p.BeamLifetime = w.BeamLifetime
	p.BeamWidth = w.BeamWidth
	p.Cooldown = w.Cooldown
	p.ShootClip = w.ShootClip
	p.Mount.Scale = w.GunScale
	return p
}

func orbitParams(cfg *config.Config) camera.OrbitParams {
	c := cfg.Camera
	return camera.OrbitParams{
		Distance:      c.Distance,
		Pitch:         c.Pitch,
		Yaw:           c.Yaw,
		MinDistance:   c.MinDistance,
		PitchLimit:    c.PitchLimit,
		RotationSpeed: c.RotationSpeed,
		MaxZoomSpeed:  c.MaxZoomSpeed,
	}
}
