package profile

import (
	"fmt"
	"strings"
)

// Kind enumerates the predefined profiles.
type Kind uint8

const (
	Car Kind = iota + 1
	Bus
	Bicycle
	Foot
	Railway
	Tram
	Subway
)

var kindNames = map[Kind]string{
	Car:     "motorcar",
	Bus:     "bus",
	Bicycle: "bicycle",
	Foot:    "foot",
	Railway: "train",
	Tram:    "tram",
	Subway:  "subway",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind accepts either the profile name or its common alias (car, railway).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "motorcar":
		return Car, nil
	case "bus":
		return Bus, nil
	case "bicycle", "bike":
		return Bicycle, nil
	case "foot", "pedestrian":
		return Foot, nil
	case "railway", "train":
		return Railway, nil
	case "tram":
		return Tram, nil
	case "subway":
		return Subway, nil
	}
	return 0, fmt.Errorf("%w: unknown profile %q", ErrInvalidProfile, s)
}

func highway(value string, penalty float64) Penalty {
	return Penalty{Key: "highway", Value: value, Penalty: penalty}
}

func railway(value string, penalty float64) Penalty {
	return Penalty{Key: "railway", Value: value, Penalty: penalty}
}

var tables = map[Kind]Custom{
	Car: {
		Name: "motorcar",
		Penalties: []Penalty{
			highway("motorway", 1.0),
			highway("motorway_link", 1.0),
			highway("trunk", 2.0),
			highway("trunk_link", 2.0),
			highway("primary", 5.0),
			highway("primary_link", 5.0),
			highway("secondary", 6.5),
			highway("secondary_link", 6.5),
			highway("tertiary", 10.0),
			highway("tertiary_link", 10.0),
			highway("unclassified", 10.0),
			highway("minor", 10.0),
			highway("residential", 15.0),
			highway("living_street", 20.0),
			highway("track", 20.0),
			highway("service", 20.0),
		},
		Access: []string{"access", "vehicle", "motor_vehicle", "motorcar"},
	},
	Bus: {
		Name: "bus",
		Penalties: []Penalty{
			highway("motorway", 1.0),
			highway("motorway_link", 1.0),
			highway("trunk", 1.0),
			highway("trunk_link", 1.0),
			highway("primary", 1.1),
			highway("primary_link", 1.1),
			highway("secondary", 1.15),
			highway("secondary_link", 1.15),
			highway("tertiary", 1.15),
			highway("tertiary_link", 1.15),
			highway("unclassified", 1.5),
			highway("minor", 1.5),
			highway("residential", 2.5),
			highway("living_street", 2.5),
			highway("track", 5.0),
			highway("service", 5.0),
		},
		Access: []string{"access", "vehicle", "motor_vehicle", "psv", "bus", "routing:ztm"},
	},
	Bicycle: {
		Name: "bicycle",
		Penalties: []Penalty{
			highway("trunk", 50.0),
			highway("trunk_link", 50.0),
			highway("primary", 10.0),
			highway("primary_link", 10.0),
			highway("secondary", 3.0),
			highway("secondary_link", 3.0),
			highway("tertiary", 2.5),
			highway("tertiary_link", 2.5),
			highway("unclassified", 2.5),
			highway("minor", 2.5),
			highway("cycleway", 1.0),
			highway("residential", 1.0),
			highway("living_street", 1.5),
			highway("track", 2.0),
			highway("service", 2.0),
			highway("bridleway", 3.0),
			highway("footway", 3.0),
			highway("steps", 5.0),
			highway("path", 2.0),
		},
		Access:            []string{"access", "vehicle", "bicycle"},
		DisallowMotorroad: true,
	},
	Foot: {
		Name: "foot",
		Penalties: []Penalty{
			highway("trunk", 4.0),
			highway("trunk_link", 4.0),
			highway("primary", 2.0),
			highway("primary_link", 2.0),
			highway("secondary", 1.3),
			highway("secondary_link", 1.3),
			highway("tertiary", 1.2),
			highway("tertiary_link", 1.2),
			highway("unclassified", 1.2),
			highway("minor", 1.2),
			highway("residential", 1.2),
			highway("living_street", 1.2),
			highway("track", 1.2),
			highway("service", 1.2),
			highway("bridleway", 1.2),
			highway("footway", 1.05),
			highway("path", 1.05),
			highway("steps", 1.15),
			highway("pedestrian", 1.0),
			highway("platform", 1.1),
			railway("platform", 1.1),
			{Key: "public_transport", Value: "platform", Penalty: 1.1},
		},
		Access:            []string{"access", "foot"},
		DisallowMotorroad: true,
	},
	Railway: {
		Name: "train",
		Penalties: []Penalty{
			railway("rail", 1.0),
			railway("light_rail", 1.0),
			railway("subway", 1.0),
			railway("narrow_gauge", 1.0),
		},
		Access: []string{"access", "train"},
	},
	Tram: {
		Name: "tram",
		Penalties: []Penalty{
			railway("tram", 1.0),
			railway("light_rail", 1.0),
		},
		Access: []string{"access", "tram"},
	},
	Subway: {
		Name: "subway",
		Penalties: []Penalty{
			railway("subway", 1.0),
		},
		Access: []string{"access", "subway"},
	},
}

// ForKind returns the predefined profile.
func ForKind(k Kind) (*Profile, error) {
	c, ok := tables[k]
	if !ok {
		return nil, fmt.Errorf("%w: unknown profile kind %d", ErrInvalidProfile, uint8(k))
	}
	return NewCustom(c)
}

// MustForKind is ForKind for the predefined kinds, which never fail.
func MustForKind(k Kind) *Profile {
	p, err := ForKind(k)
	if err != nil {
		panic(err)
	}
	return p
}
