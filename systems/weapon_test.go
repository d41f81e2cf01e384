package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Dong-David/the-last-echo/components"
	"github.com/Dong-David/the-last-echo/engine"
)

type weaponFixture struct {
	*popFixture
	fx     *EffectSystem
	weapon *Weapon
	shoot  components.AnimatorHandle
}

func newWeaponFixture() *weaponFixture {
	f := newPopFixture(DefaultPopulationParams(), 30)
	fx := NewEffectSystem(f.scene)
	shoot := f.rigs.CreateTemplate([]engine.Clip{{Name: "Shoot", Duration: 0.3}})
	f.rigs.SetLoop(shoot, false)
	return &weaponFixture{
		popFixture: f,
		fx:         fx,
		weapon:     NewWeapon(f.scene, DefaultWeaponParams(), fx, f.pop, f.rigs, shoot),
		shoot:      shoot,
	}
}

// spawnAt places an agent whose centre sits at muzzle height.
func (f *weaponFixture) spawnAt(x, z float64) ecs.Entity {
	e, _ := f.pop.Spawn(r3.Vec{X: x, Y: 0.4, Z: z})
	return e
}

func TestWeaponHitsNearest(t *testing.T) {
	f := newWeaponFixture()
	far := f.spawnAt(0, 10)
	near := f.spawnAt(0, 5)
	side := f.spawnAt(3, 7)

	res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation)
	if !res.Fired || !res.Hit || res.Target != near {
		t.Fatalf("Fire = %+v, want a hit on the nearest agent", res)
	}
	if math.Abs(res.Distance-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", res.Distance)
	}
	if f.scene.IsValid(near) || !f.scene.IsValid(far) || !f.scene.IsValid(side) {
		t.Error("only the nearest agent should be destroyed")
	}
	if f.pop.Count() != 2 || f.pop.Eliminated() != 1 || f.weapon.Hits() != 1 {
		t.Errorf("count %d eliminated %d hits %d", f.pop.Count(), f.pop.Eliminated(), f.weapon.Hits())
	}

	bt := f.scene.Transform(res.Beam)
	if bt == nil || !f.fx.IsBeam(res.Beam) {
		t.Fatal("no beam spawned")
	}
	if !vecClose(bt.Position, r3.Vec{Y: 1.4, Z: 2.5}) {
		t.Errorf("beam at %v, want the segment midpoint", bt.Position)
	}
	if !vecClose(bt.Scale, r3.Vec{X: 0.01, Y: 0.01, Z: 5}) {
		t.Errorf("beam scale %v", bt.Scale)
	}
}

func vecClose(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestWeaponMisses(t *testing.T) {
	tests := []struct {
		name string
		x, z float64
	}{
		{"too far from the ray", 0.7, 10},
		{"behind", 0, -5},
		{"beyond range", 0, 61},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newWeaponFixture()
			e := f.spawnAt(tc.x, tc.z)

			res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation)
			if !res.Fired || res.Hit {
				t.Fatalf("Fire = %+v, want a miss", res)
			}
			if !f.scene.IsValid(e) {
				t.Error("agent destroyed on a miss")
			}
			if res.Distance != 60 {
				t.Errorf("beam length %v, want full range", res.Distance)
			}
			if bt := f.scene.Transform(res.Beam); bt == nil || !vecClose(bt.Position, r3.Vec{Y: 1.4, Z: 30}) {
				t.Errorf("beam transform %+v", bt)
			}
		})
	}
}

func TestWeaponFollowsRotation(t *testing.T) {
	f := newWeaponFixture()
	e := f.spawnAt(8, 0)

	res := f.weapon.Fire(r3.Vec{}, yawRotation(math.Pi/2))
	if !res.Hit || res.Target != e {
		t.Errorf("Fire facing +X = %+v, want a hit", res)
	}
}

func TestWeaponCooldownAndAnimation(t *testing.T) {
	f := newWeaponFixture()

	if res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation); !res.Fired {
		t.Fatal("first shot should fire")
	}
	st, _ := f.rigs.State(f.shoot)
	if !st.Playing || st.Clip != 0 || st.Time != 0 {
		t.Errorf("shoot animator = %+v, want clip 0 playing from the start", st)
	}

	if res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation); res.Fired {
		t.Error("second shot inside the cooldown should not fire")
	}
	f.weapon.Tick(0.25)
	if f.weapon.Ready() {
		t.Error("weapon ready too early")
	}
	f.weapon.Tick(0.25)
	if !f.weapon.Ready() {
		t.Error("weapon should be ready after the cooldown")
	}
	if res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation); !res.Fired {
		t.Error("shot after cooldown should fire")
	}
	if f.weapon.Shots() != 2 {
		t.Errorf("Shots = %d, want 2", f.weapon.Shots())
	}
}

func TestWeaponBeamExpires(t *testing.T) {
	f := newWeaponFixture()
	res := f.weapon.Fire(r3.Vec{}, components.IdentityRotation)

	f.fx.Update(0.03)
	if !f.scene.IsValid(res.Beam) {
		t.Fatal("beam expired early")
	}
	f.fx.Update(0.02)
	if f.scene.IsValid(res.Beam) {
		t.Error("beam should expire after its lifetime")
	}
}

func TestWeaponPlaceGunThirdPerson(t *testing.T) {
	f := newWeaponFixture()
	gun := components.NewTransform(r3.Vec{})
	body := components.NewTransform(r3.Vec{X: 2, Z: 3})

	f.weapon.PlaceGun(&gun, false, nil, body)

	if !vecClose(gun.Position, r3.Vec{X: 2 - 0.27, Y: 1.51, Z: 3 + 0.53}) {
		t.Errorf("gun at %v", gun.Position)
	}
	if quatDot(gun.Rotation, yawRotation(-math.Pi/2)) < 1-1e-12 {
		t.Errorf("gun rotation %v", gun.Rotation)
	}
	if gun.Scale != (r3.Vec{X: 0.2, Y: 0.2, Z: 0.2}) || !gun.Dirty {
		t.Errorf("gun scale %v dirty %v", gun.Scale, gun.Dirty)
	}
}
