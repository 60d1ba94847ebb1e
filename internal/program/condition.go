package program

import (
	"fmt"
	"strings"
)

// MarkerCount is the number of scent markers each color owns per cell.
const MarkerCount = 6

type ConditionKind uint8

// The zero kind is invalid so that a zero Condition never matches by accident.
const (
	Friend ConditionKind = iota + 1
	Foe
	FriendWithFood
	FoeWithFood
	Food
	Rock
	Marker
	FoeMarker
	Home
	FoeHome
)

var conditionNames = map[ConditionKind]string{
	Friend:         "friend",
	Foe:            "foe",
	FriendWithFood: "friendwithfood",
	FoeWithFood:    "foewithfood",
	Food:           "food",
	Rock:           "rock",
	Marker:         "marker",
	FoeMarker:      "foemarker",
	Home:           "home",
	FoeHome:        "foehome",
}

func (k ConditionKind) String() string {
	if name, ok := conditionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("condition(%d)", uint8(k))
}

// ParseConditionKind matches name against the condition names ignoring case.
func ParseConditionKind(name string) (ConditionKind, bool) {
	name = strings.ToLower(name)
	for kind, n := range conditionNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// Condition is what a Sense instruction checks. Marker is only meaningful
// for the Marker kind.
type Condition struct {
	Kind   ConditionKind
	Marker int
}

func Is(kind ConditionKind) Condition {
	return Condition{Kind: kind}
}

func MarkerAt(i int) Condition {
	return Condition{Kind: Marker, Marker: i}
}

func (c Condition) Valid() bool {
	if _, ok := conditionNames[c.Kind]; !ok {
		return false
	}
	if c.Kind == Marker {
		return ValidMarker(c.Marker)
	}
	return c.Marker == 0
}

func (c Condition) String() string {
	if c.Kind == Marker {
		return fmt.Sprintf("%s %d", c.Kind, c.Marker)
	}
	return c.Kind.String()
}

func ValidMarker(i int) bool {
	return i >= 0 && i < MarkerCount
}
