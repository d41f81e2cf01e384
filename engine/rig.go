package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Dong-David/the-last-echo/components"
)

var (
	// ErrUnknownAnimator is returned for handles the registry does not hold.
	ErrUnknownAnimator = errors.New("unknown animator")
	// ErrClipOutOfRange is returned when binding a clip index the rig does not have.
	ErrClipOutOfRange = errors.New("clip index out of range")
)

// Clip is a named animation with a fixed duration in seconds.
type Clip struct {
	Name     string
	Duration float64
}

// RigState is the playback state of one animator.
type RigState struct {
	Clip    int // Bound clip index, -1 if none
	Time    float64
	Playing bool
	Loop    bool
}

type rig struct {
	clips []Clip
	state RigState
}

// RigRegistry owns animators. Templates are created once and cloned per actor.
type RigRegistry struct {
	rigs map[components.AnimatorHandle]*rig
	next components.AnimatorHandle
}

// NewRigRegistry creates an empty registry.
func NewRigRegistry() *RigRegistry {
	return &RigRegistry{rigs: make(map[components.AnimatorHandle]*rig)}
}

// CreateTemplate registers an animator with the given clips.
func (r *RigRegistry) CreateTemplate(clips []Clip) components.AnimatorHandle {
	r.next++
	r.rigs[r.next] = &rig{
		clips: append([]Clip(nil), clips...),
		state: RigState{Clip: -1, Loop: true},
	}
	return r.next
}

// Clone creates an independent animator sharing the source's clip set.
func (r *RigRegistry) Clone(src components.AnimatorHandle) (components.AnimatorHandle, error) {
	s, ok := r.rigs[src]
	if !ok {
		return 0, fmt.Errorf("clone %d: %w", src, ErrUnknownAnimator)
	}
	r.next++
	r.rigs[r.next] = &rig{
		clips: s.clips,
		state: RigState{Clip: -1, Loop: s.state.Loop},
	}
	return r.next, nil
}

// Clips returns the clip set of an animator.
func (r *RigRegistry) Clips(h components.AnimatorHandle) []Clip {
	if rg, ok := r.rigs[h]; ok {
		return rg.clips
	}
	return nil
}

// BindClip selects which clip plays and rewinds it.
func (r *RigRegistry) BindClip(h components.AnimatorHandle, clip int) error {
	rg, ok := r.rigs[h]
	if !ok {
		return fmt.Errorf("bind clip on %d: %w", h, ErrUnknownAnimator)
	}
	if clip < 0 || clip >= len(rg.clips) {
		return fmt.Errorf("bind clip %d of %d: %w", clip, len(rg.clips), ErrClipOutOfRange)
	}
	rg.state.Clip = clip
	rg.state.Time = 0
	return nil
}

// Play resumes playback. Unknown handles are ignored.
func (r *RigRegistry) Play(h components.AnimatorHandle) {
	if rg, ok := r.rigs[h]; ok {
		rg.state.Playing = true
	}
}

// Pause halts playback. Unknown handles are ignored.
func (r *RigRegistry) Pause(h components.AnimatorHandle) {
	if rg, ok := r.rigs[h]; ok {
		rg.state.Playing = false
	}
}

// SetLoop sets whether playback wraps at the end of the clip.
func (r *RigRegistry) SetLoop(h components.AnimatorHandle, loop bool) {
	if rg, ok := r.rigs[h]; ok {
		rg.state.Loop = loop
	}
}

// Destroy releases an animator. Unknown handles are ignored.
func (r *RigRegistry) Destroy(h components.AnimatorHandle) {
	delete(r.rigs, h)
}

// State returns a copy of an animator's playback state.
func (r *RigRegistry) State(h components.AnimatorHandle) (RigState, bool) {
	rg, ok := r.rigs[h]
	if !ok {
		return RigState{}, false
	}
	return rg.state, true
}

// Count returns the number of live animators, templates included.
func (r *RigRegistry) Count() int {
	return len(r.rigs)
}

// Advance moves every playing animator forward by dt.
func (r *RigRegistry) Advance(dt float64) {
	for _, rg := range r.rigs {
		st := &rg.state
		if !st.Playing || st.Clip < 0 {
			continue
		}
		d := rg.clips[st.Clip].Duration
		st.Time += dt
		if d <= 0 || st.Time < d {
			continue
		}
		if st.Loop {
			st.Time = math.Mod(st.Time, d)
		} else {
			st.Time = d
			st.Playing = false
		}
	}
}

// ZombieClips is the clip set of the hostile agent rig. Index 4 is the walk cycle.
func ZombieClips() []Clip {
	return []Clip{
		{Name: "Idle", Duration: 2.0},
		{Name: "Scream", Duration: 1.6},
		{Name: "Attack", Duration: 1.2},
		{Name: "Death", Duration: 2.4},
		{Name: "Walk", Duration: 1.1},
		{Name: "Run", Duration: 0.8},
	}
}

// PlayerClips is the clip set of the player rig.
func PlayerClips() []Clip {
	return []Clip{
		{Name: "Idle", Duration: 2.0},
		{Name: "Run", Duration: 0.7},
		{Name: "Shoot", Duration: 0.3},
	}
}
