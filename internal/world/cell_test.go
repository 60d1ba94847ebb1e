package world

import (
	"errors"
	"testing"

	"bugworld/internal/program"
)

func TestCellOccupancy(t *testing.T) {
	var c Cell
	a := NewAgent(0, Red, 0, nil)
	b := NewAgent(1, Black, 0, nil)
	if c.IsOccupied() {
		t.Fatalf("empty cell occupied")
	}
	if !c.SetAgent(a) {
		t.Fatalf("SetAgent on empty cell failed")
	}
	if c.SetAgent(b) {
		t.Fatalf("second SetAgent succeeded")
	}
	if c.Agent() != a {
		t.Fatalf("occupant replaced")
	}
	if got := c.RemoveAgent(); got != a || c.IsOccupied() {
		t.Fatalf("RemoveAgent = %v, occupied %v", got, c.IsOccupied())
	}
}

func TestCellFoodAndBase(t *testing.T) {
	var c Cell
	if err := c.SetFood(5); err != nil || c.Food() != 5 {
		t.Fatalf("SetFood(5): %v, food %d", err, c.Food())
	}
	if err := c.SetFood(-1); !errors.Is(err, ErrNegativeFood) {
		t.Fatalf("negative food accepted: %v", err)
	}
	if c.IsFriendlyBase(Red) || c.IsEnemyBase(Red) || c.IsEnemyBase(Black) {
		t.Fatalf("cell without base reports a base")
	}
	if err := c.SetBase(Red); err != nil {
		t.Fatal(err)
	}
	if !c.IsFriendlyBase(Red) || c.IsFriendlyBase(Black) {
		t.Fatalf("friendly base wrong")
	}
	if !c.IsEnemyBase(Black) || c.IsEnemyBase(Red) {
		t.Fatalf("enemy base wrong")
	}
	if err := c.SetBase(Color(9)); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("invalid base accepted: %v", err)
	}
}

func TestCellMarkers(t *testing.T) {
	var c Cell
	if err := c.SetMarker(Red, 0); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.IsFriendlyMarker(Red, 0); !ok {
		t.Fatalf("red marker 0 not set")
	}
	if ok, _ := c.IsFriendlyMarker(Black, 0); ok {
		t.Fatalf("black sees red marker as its own")
	}
	if ok, _ := c.IsEnemyMarker(Black); !ok {
		t.Fatalf("black does not see red marker as enemy")
	}
	if ok, _ := c.IsEnemyMarker(Red); ok {
		t.Fatalf("red sees its own marker as enemy")
	}
	if err := c.ClearMarker(Red, 0); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.IsFriendlyMarker(Red, 0); ok {
		t.Fatalf("marker not cleared")
	}

	for _, i := range []int{-1, 6} {
		if err := c.SetMarker(Red, i); !errors.Is(err, ErrMarkerIndex) {
			t.Errorf("SetMarker(%d): %v", i, err)
		}
		if err := c.ClearMarker(Red, i); !errors.Is(err, ErrMarkerIndex) {
			t.Errorf("ClearMarker(%d): %v", i, err)
		}
		if _, err := c.IsFriendlyMarker(Red, i); !errors.Is(err, ErrMarkerIndex) {
			t.Errorf("IsFriendlyMarker(%d): %v", i, err)
		}
	}
	if err := c.SetMarker(Color(3), 0); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("SetMarker with bad color: %v", err)
	}
	if _, err := c.IsEnemyMarker(Color(3)); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("IsEnemyMarker with bad color: %v", err)
	}
}

func TestCellMatches(t *testing.T) {
	redWithFood := NewAgent(0, Red, 0, nil)
	redWithFood.HasFood = true
	blackHungry := NewAgent(1, Black, 0, nil)

	occupied := func(a *Agent) *Cell {
		c := &Cell{}
		c.SetAgent(a)
		return c
	}
	food := &Cell{food: 2}
	rock := &Cell{obstructed: true}
	redHome := &Cell{}
	redHome.SetBase(Red)
	marked := &Cell{}
	marked.SetMarker(Red, 3)

	tests := []struct {
		name   string
		cell   *Cell
		cond   program.Condition
		asking Color
		want   bool
	}{
		{"friend", occupied(redWithFood), program.Is(program.Friend), Red, true},
		{"friend other color", occupied(redWithFood), program.Is(program.Friend), Black, false},
		{"friend empty", &Cell{}, program.Is(program.Friend), Red, false},
		{"foe", occupied(blackHungry), program.Is(program.Foe), Red, true},
		{"foe same color", occupied(blackHungry), program.Is(program.Foe), Black, false},
		{"friend with food", occupied(redWithFood), program.Is(program.FriendWithFood), Red, true},
		{"friend without food", occupied(blackHungry), program.Is(program.FriendWithFood), Black, false},
		{"foe with food", occupied(redWithFood), program.Is(program.FoeWithFood), Black, true},
		{"foe without food", occupied(blackHungry), program.Is(program.FoeWithFood), Red, false},
		{"food", food, program.Is(program.Food), Red, true},
		{"no food", &Cell{}, program.Is(program.Food), Red, false},
		{"rock", rock, program.Is(program.Rock), Black, true},
		{"not rock", food, program.Is(program.Rock), Black, false},
		{"marker", marked, program.MarkerAt(3), Red, true},
		{"other marker index", marked, program.MarkerAt(2), Red, false},
		{"marker of other color", marked, program.MarkerAt(3), Black, false},
		{"foe marker", marked, program.Is(program.FoeMarker), Black, true},
		{"own marker is not foe", marked, program.Is(program.FoeMarker), Red, false},
		{"home", redHome, program.Is(program.Home), Red, true},
		{"not home", redHome, program.Is(program.Home), Black, false},
		{"foe home", redHome, program.Is(program.FoeHome), Black, true},
		{"own home is not foe home", redHome, program.Is(program.FoeHome), Red, false},
		{"no base is not foe home", &Cell{}, program.Is(program.FoeHome), Red, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cell.Matches(tt.cond, tt.asking)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (&Cell{}).Matches(program.Condition{}, Red); !errors.Is(err, ErrUnknownCondition) {
		t.Fatalf("zero condition: %v", err)
	}
	if _, err := (&Cell{}).Matches(program.Is(program.Food), Color(4)); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("bad asking color: %v", err)
	}
	if _, err := marked.Matches(program.MarkerAt(9), Red); !errors.Is(err, ErrMarkerIndex) {
		t.Fatalf("bad marker index: %v", err)
	}
}

func TestCellString(t *testing.T) {
	c := &Cell{}
	c.SetBase(Red)
	want := "obstructed: false agent: <none> food: 0 redMarkers: 000000 blackMarkers: 000000 base: red"
	if got := c.String(); got != want {
		t.Fatalf("got %q", got)
	}
	c.SetMarker(Black, 1)
	c.SetAgent(NewAgent(7, Black, 0, nil))
	want = "obstructed: false agent: #7 food: 0 redMarkers: 000000 blackMarkers: 010000 base: red"
	if got := c.String(); got != want {
		t.Fatalf("got %q", got)
	}
}
