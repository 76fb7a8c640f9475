package entities

import (
	"fmt"
	"strings"
)

// Sport identifies the discipline of an event. Values are stable on-ledger ids.
type Sport uint8

const (
	SportFootball Sport = iota
	SportBasketball
	SportTennis
	SportIceHockey
	SportBaseball
	SportAmericanFootball
	SportVolleyball
	SportHandball
	SportRugby
	SportCricket
	SportMMA
	SportEsports
)

var sportNames = map[Sport]string{
	SportFootball:         "football",
	SportBasketball:       "basketball",
	SportTennis:           "tennis",
	SportIceHockey:        "ice_hockey",
	SportBaseball:         "baseball",
	SportAmericanFootball: "american_football",
	SportVolleyball:       "volleyball",
	SportHandball:         "handball",
	SportRugby:            "rugby",
	SportCricket:          "cricket",
	SportMMA:              "mma",
	SportEsports:          "esports",
}

func (s Sport) String() string {
	if name, ok := sportNames[s]; ok {
		return name
	}
	return fmt.Sprintf("sport(%d)", uint8(s))
}

// ParseSport resolves a sport by name ("soccer" is accepted for football)
func ParseSport(name string) (Sport, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	if n == "soccer" {
		return SportFootball, nil
	}
	for s, sn := range sportNames {
		if sn == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sport: %q", name)
}

// Gender identifies the competition category of an event
type Gender uint8

const (
	GenderMen Gender = iota
	GenderWomen
	GenderMixed
)

func (g Gender) String() string {
	switch g {
	case GenderMen:
		return "men"
	case GenderWomen:
		return "women"
	case GenderMixed:
		return "mixed"
	default:
		return fmt.Sprintf("gender(%d)", uint8(g))
	}
}

// ParseGender resolves a gender category by name
func ParseGender(name string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "men", "male", "m":
		return GenderMen, nil
	case "women", "female", "w", "f":
		return GenderWomen, nil
	case "mixed", "x":
		return GenderMixed, nil
	default:
		return 0, fmt.Errorf("unknown gender: %q", name)
	}
}
