package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"lintang/routex/pkg/datastructure"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/osm"
)

type Direction uint8

const (
	// Forward follows the order of the way's node refs.
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

var ErrInvalidProfile = errors.New("invalid profile")

// Evaluator decides which ways a vehicle may use and how much they cost.
type Evaluator interface {
	Name() string
	Permits(tags osm.Tags, dir Direction) bool
	// Cost is +Inf when Permits is false for the same arguments.
	Cost(tags osm.Tags, dir Direction, length float64) float64
	// MinCostFactor is a lower bound of Cost/length over all permitted ways.
	MinCostFactor() float64
	Restriction(tags osm.Tags) (datastructure.RestrictionKind, bool)
}

// Penalty makes ways tagged Key=Value routable with cost length*Penalty.
type Penalty struct {
	Key     string
	Value   string
	Penalty float64
}

// Custom describes a user supplied rule table.
type Custom struct {
	Name string
	// Penalties are matched in order, first exact match wins.
	Penalties []Penalty
	// Access lists access tags from least to most specific.
	Access              []string
	DisallowMotorroad   bool
	DisableRestrictions bool
}

// Profile is a table driven Evaluator.
type Profile struct {
	name                string
	penalties           []Penalty
	access              []string
	disallowMotorroad   bool
	disableRestrictions bool
	minCostFactor       float64
}

// NewCustom validates a rule table and turns it into a Profile.
func NewCustom(c Custom) (*Profile, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	if len(c.Penalties) == 0 {
		return nil, fmt.Errorf("%w: profile %s has no penalties", ErrInvalidProfile, c.Name)
	}

	minCost := math.Inf(1)
	for _, p := range c.Penalties {
		if p.Key == "" {
			return nil, fmt.Errorf("%w: profile %s has a penalty without key", ErrInvalidProfile, c.Name)
		}
		// tags.Find returns "" for a missing key, an empty value would match untagged ways
		if p.Value == "" {
			return nil, fmt.Errorf("%w: profile %s has a penalty %s without value", ErrInvalidProfile, c.Name, p.Key)
		}
		if math.IsNaN(p.Penalty) || math.IsInf(p.Penalty, 0) || p.Penalty <= 0 {
			return nil, fmt.Errorf("%w: profile %s: penalty %s=%s must be finite and > 0, got %v",
				ErrInvalidProfile, c.Name, p.Key, p.Value, p.Penalty)
		}
		minCost = math.Min(minCost, p.Penalty)
	}

	prof := &Profile{
		name:                c.Name,
		penalties:           append([]Penalty(nil), c.Penalties...),
		access:              append([]string(nil), c.Access...),
		disallowMotorroad:   c.DisallowMotorroad,
		disableRestrictions: c.DisableRestrictions,
		minCostFactor:       minCost,
	}
	return prof, nil
}

func (p *Profile) Name() string {
	return p.name
}

func (p *Profile) MinCostFactor() float64 {
	return p.minCostFactor
}

// Fingerprint digests the whole rule table. Two profiles with the same name
// but different tables get different fingerprints.
func (p *Profile) Fingerprint() uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "name=%s\n", p.name)
	for _, pen := range p.penalties {
		fmt.Fprintf(d, "penalty=%s=%s=%x\n", pen.Key, pen.Value, math.Float64bits(pen.Penalty))
	}
	for _, key := range p.access {
		fmt.Fprintf(d, "access=%s\n", key)
	}
	fmt.Fprintf(d, "motorroad=%t restrictions=%t\n", p.disallowMotorroad, p.disableRestrictions)
	return d.Sum64()
}

func (p *Profile) isFoot() bool {
	return p.name == "foot"
}

func (p *Profile) penalty(tags osm.Tags) (float64, bool) {
	for _, pen := range p.penalties {
		if tags.Find(pen.Key) == pen.Value {
			return pen.Penalty, true
		}
	}
	return 0, false
}

// Routable reports whether the way is used by this profile at all, in any direction.
func (p *Profile) Routable(tags osm.Tags) bool {
	_, ok := p.penalty(tags)
	return ok
}

func (p *Profile) Permits(tags osm.Tags, dir Direction) bool {
	if _, ok := p.penalty(tags); !ok {
		return false
	}
	if p.disallowMotorroad && tags.Find("motorroad") == "yes" {
		return false
	}
	if !p.accessAllowed(tags, dir) {
		return false
	}

	switch p.oneway(tags) {
	case onewayClosed:
		return false
	case onewayForward:
		return dir == Forward
	case onewayBackward:
		return dir == Backward
	default:
		return true
	}
}

func (p *Profile) Cost(tags osm.Tags, dir Direction, length float64) float64 {
	if !p.Permits(tags, dir) {
		return math.Inf(1)
	}
	pen, _ := p.penalty(tags)
	return length * pen
}

var restrictedAccess = map[string]bool{
	"no":           true,
	"private":      true,
	"restricted":   true,
	"military":     true,
	"emergency":    true,
	"permit":       true,
	"agricultural": true,
	"forestry":     true,
	"delivery":     true,
}

// accessAllowed takes the value of the most specific access tag present,
// a direction specific variant (motorcar:forward=no) beats the plain key.
func (p *Profile) accessAllowed(tags osm.Tags, dir Direction) bool {
	value := ""
	for _, key := range p.access {
		if v := tags.Find(key); v != "" {
			value = v
		}
		if v := tags.Find(key + ":" + dir.String()); v != "" {
			value = v
		}
	}
	return !restrictedAccess[value]
}

type onewayState uint8

const (
	onewayNone onewayState = iota
	onewayForward
	onewayBackward
	// direction changes over time (reversible, alternating), not routable
	onewayClosed
)

func parseOneway(v string) (onewayState, bool) {
	switch v {
	case "yes", "true", "1":
		return onewayForward, true
	case "-1", "reverse":
		return onewayBackward, true
	case "no", "false", "0":
		return onewayNone, true
	case "reversible", "alternating":
		return onewayClosed, true
	}
	return onewayNone, false
}

var footOnewayHighways = map[string]bool{
	"footway":  true,
	"path":     true,
	"steps":    true,
	"platform": true,
}

func (p *Profile) oneway(tags osm.Tags) onewayState {
	if p.isFoot() {
		if s, ok := parseOneway(tags.Find("oneway:foot")); ok {
			return s
		}
		if footOnewayHighways[tags.Find("highway")] || tags.Find("public_transport") == "platform" ||
			tags.Find("railway") == "platform" {
			s, _ := parseOneway(tags.Find("oneway"))
			return s
		}
		return onewayNone
	}

	state, found := parseOneway(tags.Find("oneway"))
	for _, key := range p.access {
		if key == "access" {
			continue
		}
		if s, ok := parseOneway(tags.Find("oneway:" + key)); ok {
			state, found = s, true
		}
	}
	if found {
		return state
	}

	junction := tags.Find("junction")
	if junction == "roundabout" || junction == "circular" || tags.Find("highway") == "motorway" {
		return onewayForward
	}
	return onewayNone
}

// Restriction classifies a turn restriction relation for this profile.
// ok is false when the relation does not apply.
func (p *Profile) Restriction(tags osm.Tags) (datastructure.RestrictionKind, bool) {
	if p.disableRestrictions {
		return 0, false
	}

	value := ""
	if p.isFoot() {
		value = tags.Find("restriction:foot")
	} else {
		value = tags.Find("restriction")
		for _, key := range p.access {
			if key == "access" {
				continue
			}
			if v := tags.Find("restriction:" + key); v != "" {
				value = v
			}
		}
	}

	if p.exempt(tags.Find("except")) {
		return 0, false
	}

	switch {
	case strings.HasPrefix(value, "no_"):
		return datastructure.Prohibitory, true
	case strings.HasPrefix(value, "only_"):
		return datastructure.Mandatory, true
	}
	return 0, false
}

func (p *Profile) exempt(except string) bool {
	if except == "" {
		return false
	}
	for _, mode := range strings.Split(except, ";") {
		mode = strings.TrimSpace(mode)
		for _, key := range p.access {
			if key != "access" && key == mode {
				return true
			}
		}
	}
	return false
}
