package game

import (
	"errors"
	"testing"
)

func TestStandardTableGeometry(t *testing.T) {
	p := DefaultParams()
	table := NewTable(p)

	if err := ValidateTable(table, p.BallRadius); err != nil {
		t.Fatalf("default table should be valid: %v", err)
	}
	if len(table.Pockets) != NumPockets {
		t.Fatalf("expected %d pockets, got %d", NumPockets, len(table.Pockets))
	}

	corners := 0
	for _, pk := range table.Pockets {
		if pk.Radius <= p.BallRadius {
			t.Errorf("pocket %d radius %.2f not larger than ball radius %.2f", pk.ID, pk.Radius, p.BallRadius)
		}
		if pk.Corner {
			corners++
		}
	}
	if corners != 4 {
		t.Errorf("expected 4 corner pockets, got %d", corners)
	}
}

func TestPocketsTouchTheRailRectangle(t *testing.T) {
	p := DefaultParams()
	table := NewTable(p)
	tolerance := 1e-9 * p.PocketRadius

	for _, pk := range table.Pockets {
		intrusion := pocketIntrusion(pk, table.HalfLength(), table.HalfWidth())
		if intrusion > tolerance {
			t.Errorf("pocket %d intrudes by %.12f", pk.ID, intrusion)
		}
		// With no setback the circle touches the rail corner or midpoint.
		if intrusion < -tolerance {
			t.Errorf("pocket %d should touch the rail rectangle, gap %.12f", pk.ID, -intrusion)
		}
		if c := table.PocketClearance(pk); c < -tolerance {
			t.Errorf("pocket %d innermost point lies inside the rail line by %.12f", pk.ID, -c)
		}
		if table.Contains(pk.Center) {
			t.Errorf("pocket %d center %v lies inside the rails", pk.ID, pk.Center)
		}
	}
}

func TestPocketSetbackMovesPocketsOut(t *testing.T) {
	p := DefaultParams()
	p.PocketSetback = 4
	table := NewTable(p)

	for _, pk := range table.Pockets {
		if intrusion := pocketIntrusion(pk, table.HalfLength(), table.HalfWidth()); intrusion > -4+1e-9 {
			t.Errorf("pocket %d should clear the rails by the setback, intrusion %.6f", pk.ID, intrusion)
		}
	}
}

func TestRailNormalsFaceTheTable(t *testing.T) {
	table := NewTable(DefaultParams())
	for _, r := range table.Rails {
		if r.Kind != RailCushion {
			continue
		}
		mid := r.P1.Plus(r.P2).Times(0.5)
		if r.Normal.Dot(mid.Invert()) <= 0 {
			t.Errorf("%s normal %v points away from the table center", r.Name, r.Normal)
		}
	}
}

func TestInvalidConstruction(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"pocket equal to ball", func(p *Params) { p.PocketRadius = p.BallRadius }, ErrPocketTooSmall},
		{"negative setback", func(p *Params) { p.PocketSetback = -1 }, ErrInvalidParams},
		{"zero width", func(p *Params) { p.TableWidth = 0 }, ErrInvalidParams},
		{"narrow corner mouth", func(p *Params) { p.CornerMouth = 0.5 }, ErrMouthTooNarrow},
		{"rack off the foot rail", func(p *Params) { p.FootSpotRatio = 0.99 }, ErrRackDoesNotFit},
		{"unknown friction model", func(p *Params) { p.FrictionModel = "sticky" }, ErrInvalidParams},
		{"inverted break range", func(p *Params) { p.BreakSpeedMax = p.BreakSpeedMin - 1 }, ErrInvalidParams},
	}

	for _, tc := range cases {
		p := DefaultParams()
		tc.mutate(&p)
		_, err := NewSimulation(p, NewSeededRNG(1))
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestInvalidCustomTable(t *testing.T) {
	p := DefaultParams()

	missing := NewTable(p)
	missing.Pockets = missing.Pockets[:5]
	if _, err := NewSimulationWithTable(p, missing, NewSeededRNG(1)); !errors.Is(err, ErrPocketCount) {
		t.Errorf("expected ErrPocketCount, got %v", err)
	}

	intruding := NewTable(p)
	intruding.Pockets[0].Center = NewVec2(-intruding.HalfLength()+5, -intruding.HalfWidth()+5)
	if _, err := NewSimulationWithTable(p, intruding, NewSeededRNG(1)); !errors.Is(err, ErrPocketIntrudes) {
		t.Errorf("expected ErrPocketIntrudes, got %v", err)
	}

	if err := ValidateTable(nil, p.BallRadius); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestStandardRackLayout(t *testing.T) {
	p := DefaultParams()
	rack := StandardRack(p)
	if len(rack) != NumRackBalls {
		t.Fatalf("expected %d balls, got %d", NumRackBalls, len(rack))
	}
	assertNoOverlap(t, rack)

	if rack[0].Number != 1 || rack[0].Position != footSpot(p) {
		t.Errorf("apex should be ball 1 on the foot spot, got %d at %v", rack[0].Number, rack[0].Position)
	}
	// The 8 sits in the middle of the third row, on the long axis.
	if rack[4].Number != 8 || rack[4].Position.Y != 0 {
		t.Errorf("expected the 8 centered in row three, got %d at %v", rack[4].Number, rack[4].Position)
	}
}
