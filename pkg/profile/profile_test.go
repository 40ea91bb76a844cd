package profile

import (
	"math"
	"testing"

	"lintang/routex/pkg/datastructure"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tags(kv ...string) osm.Tags {
	t := osm.Tags{}
	for i := 0; i+1 < len(kv); i += 2 {
		t = append(t, osm.Tag{Key: kv[i], Value: kv[i+1]})
	}
	return t
}

func TestPermits(t *testing.T) {
	car := MustForKind(Car)
	bike := MustForKind(Bicycle)
	foot := MustForKind(Foot)
	bus := MustForKind(Bus)

	cases := []struct {
		name     string
		prof     *Profile
		tags     osm.Tags
		forward  bool
		backward bool
	}{
		{"car residential", car, tags("highway", "residential"), true, true},
		{"car footway", car, tags("highway", "footway"), false, false},
		{"car untagged", car, tags("name", "Marszałkowska"), false, false},
		{"car oneway", car, tags("highway", "primary", "oneway", "yes"), true, false},
		{"car oneway reverse", car, tags("highway", "primary", "oneway", "-1"), false, true},
		{"car oneway no", car, tags("highway", "primary", "oneway", "no"), true, true},
		{"car roundabout", car, tags("highway", "primary", "junction", "roundabout"), true, false},
		{"car roundabout explicit no", car, tags("highway", "primary", "junction", "roundabout", "oneway", "no"), true, true},
		{"car motorway implied oneway", car, tags("highway", "motorway"), true, false},
		{"car access no", car, tags("highway", "residential", "access", "no"), false, false},
		{"car access no motorcar yes", car, tags("highway", "residential", "access", "no", "motorcar", "yes"), true, true},
		{"car motor_vehicle private", car, tags("highway", "service", "motor_vehicle", "private"), false, false},
		{"car directional access", car, tags("highway", "residential", "motor_vehicle:backward", "no"), true, false},
		{"car motorroad", car, tags("highway", "trunk", "motorroad", "yes"), true, true},
		{"bike motorroad", bike, tags("highway", "trunk", "motorroad", "yes"), false, false},
		{"bike oneway bicycle no", bike, tags("highway", "residential", "oneway", "yes", "oneway:bicycle", "no"), true, true},
		{"car ignores oneway bicycle", car, tags("highway", "residential", "oneway", "yes", "oneway:bicycle", "no"), true, false},
		{"foot ignores oneway on road", foot, tags("highway", "residential", "oneway", "yes"), true, true},
		{"foot oneway on footway", foot, tags("highway", "footway", "oneway", "yes"), true, false},
		{"foot oneway foot", foot, tags("highway", "residential", "oneway:foot", "yes"), true, false},
		{"foot roundabout", foot, tags("highway", "residential", "junction", "roundabout"), true, true},
		{"foot access no foot yes", foot, tags("highway", "residential", "access", "no", "foot", "yes"), true, true},
		{"car oneway reversible", car, tags("highway", "primary", "oneway", "reversible"), false, false},
		{"car oneway alternating", car, tags("highway", "primary", "oneway", "alternating"), false, false},
		{"bike reversible oneway bicycle no", bike, tags("highway", "residential", "oneway", "reversible", "oneway:bicycle", "no"), true, true},
		{"foot ignores reversible road", foot, tags("highway", "residential", "oneway", "reversible"), true, true},
		{"bus psv yes", bus, tags("highway", "residential", "motor_vehicle", "no", "psv", "yes"), true, true},
		{"bus ztm no", bus, tags("highway", "residential", "routing:ztm", "no"), false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.forward, c.prof.Permits(c.tags, Forward), "forward")
			assert.Equal(t, c.backward, c.prof.Permits(c.tags, Backward), "backward")
		})
	}
}

func TestCost(t *testing.T) {
	car := MustForKind(Car)

	assert.Equal(t, 150.0, car.Cost(tags("highway", "residential"), Forward, 10))
	assert.Equal(t, 50.0, car.Cost(tags("highway", "primary"), Backward, 10))
	assert.True(t, math.IsInf(car.Cost(tags("highway", "primary", "oneway", "yes"), Backward, 10), 1))
	assert.True(t, math.IsInf(car.Cost(tags("highway", "cycleway"), Forward, 10), 1))
	assert.Equal(t, 1.0, car.MinCostFactor())

	assert.Equal(t, 1.0, MustForKind(Foot).MinCostFactor())
	assert.Equal(t, 1.0, MustForKind(Bicycle).MinCostFactor())
}

func TestPenaltyOrderFirstMatchWins(t *testing.T) {
	p, err := NewCustom(Custom{
		Name: "tractor",
		Penalties: []Penalty{
			{Key: "highway", Value: "track", Penalty: 1},
			{Key: "surface", Value: "gravel", Penalty: 4},
		},
		Access: []string{"access", "agricultural"},
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, p.Cost(tags("surface", "gravel", "highway", "track"), Forward, 10))
	assert.Equal(t, 40.0, p.Cost(tags("surface", "gravel", "highway", "service"), Forward, 10))
	assert.True(t, p.Routable(tags("surface", "gravel")))
	assert.False(t, p.Routable(tags("highway", "service")))
	assert.Equal(t, "tractor", p.Name())
}

func TestNewCustomValidation(t *testing.T) {
	cases := []Custom{
		{Name: "", Penalties: []Penalty{{Key: "highway", Value: "x", Penalty: 1}}},
		{Name: "empty"},
		{Name: "zero", Penalties: []Penalty{{Key: "highway", Value: "x", Penalty: 0}}},
		{Name: "negative", Penalties: []Penalty{{Key: "highway", Value: "x", Penalty: -1}}},
		{Name: "inf", Penalties: []Penalty{{Key: "highway", Value: "x", Penalty: math.Inf(1)}}},
		{Name: "nan", Penalties: []Penalty{{Key: "highway", Value: "x", Penalty: math.NaN()}}},
		{Name: "nokey", Penalties: []Penalty{{Value: "x", Penalty: 1}}},
		{Name: "novalue", Penalties: []Penalty{{Key: "highway", Penalty: 1}}},
	}
	for _, c := range cases {
		_, err := NewCustom(c)
		assert.ErrorIs(t, err, ErrInvalidProfile, c.Name)
	}
}

func TestFingerprint(t *testing.T) {
	car := MustForKind(Car)
	assert.Equal(t, car.Fingerprint(), MustForKind(Car).Fingerprint())
	assert.NotEqual(t, car.Fingerprint(), MustForKind(Bus).Fingerprint())

	base := Custom{
		Name:      "motorcar",
		Penalties: []Penalty{{Key: "highway", Value: "residential", Penalty: 15}},
		Access:    []string{"access", "motorcar"},
	}
	p1, err := NewCustom(base)
	require.NoError(t, err)
	assert.NotEqual(t, car.Fingerprint(), p1.Fingerprint())

	changed := []Custom{
		{Name: base.Name, Penalties: []Penalty{{Key: "highway", Value: "residential", Penalty: 16}}, Access: base.Access},
		{Name: base.Name, Penalties: []Penalty{{Key: "highway", Value: "service", Penalty: 15}}, Access: base.Access},
		{Name: base.Name, Penalties: base.Penalties, Access: []string{"access"}},
		{Name: base.Name, Penalties: base.Penalties, Access: base.Access, DisallowMotorroad: true},
		{Name: base.Name, Penalties: base.Penalties, Access: base.Access, DisableRestrictions: true},
	}
	for i, c := range changed {
		p2, err := NewCustom(c)
		require.NoError(t, err)
		assert.NotEqual(t, p1.Fingerprint(), p2.Fingerprint(), "variant %d", i)
	}
}

func TestRestriction(t *testing.T) {
	car := MustForKind(Car)
	bike := MustForKind(Bicycle)
	foot := MustForKind(Foot)

	kind, ok := car.Restriction(tags("type", "restriction", "restriction", "no_left_turn"))
	require.True(t, ok)
	assert.Equal(t, datastructure.Prohibitory, kind)

	kind, ok = car.Restriction(tags("type", "restriction", "restriction", "only_straight_on"))
	require.True(t, ok)
	assert.Equal(t, datastructure.Mandatory, kind)

	_, ok = car.Restriction(tags("type", "restriction", "restriction", "no_entry", "except", "bicycle"))
	assert.True(t, ok)
	_, ok = bike.Restriction(tags("type", "restriction", "restriction", "no_entry", "except", "psv;bicycle"))
	assert.False(t, ok)

	_, ok = car.Restriction(tags("type", "restriction", "restriction:bicycle", "no_left_turn"))
	assert.False(t, ok)
	_, ok = bike.Restriction(tags("type", "restriction", "restriction:bicycle", "no_left_turn"))
	assert.True(t, ok)

	_, ok = foot.Restriction(tags("type", "restriction", "restriction", "no_left_turn"))
	assert.False(t, ok)
	_, ok = foot.Restriction(tags("type", "restriction", "restriction:foot", "no_left_turn"))
	assert.True(t, ok)

	_, ok = car.Restriction(tags("type", "restriction", "restriction", "give_way"))
	assert.False(t, ok)

	noRestr, err := NewCustom(Custom{
		Name:                "rally",
		Penalties:           []Penalty{{Key: "highway", Value: "track", Penalty: 1}},
		Access:              []string{"access", "motorcar"},
		DisableRestrictions: true,
	})
	require.NoError(t, err)
	_, ok = noRestr.Restriction(tags("type", "restriction", "restriction", "no_left_turn"))
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Car, Bus, Bicycle, Foot, Railway, Tram, Subway} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)

		p, err := ForKind(k)
		require.NoError(t, err)
		assert.Equal(t, k.String(), p.Name())
	}

	k, err := ParseKind("Car")
	require.NoError(t, err)
	assert.Equal(t, Car, k)

	_, err = ParseKind("hovercraft")
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = ForKind(Kind(42))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}
