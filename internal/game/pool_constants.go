package game

import (
	"errors"
	"fmt"
	"math"
)

// Table geometry and physics defaults. The table is 2:1 with its length along x,
// ball radius is 1/30 of the table width and pockets are 1.5 ball radii.
const (
	NumRackBalls = 15
	NumPockets   = 6

	DefaultTableLength   = 750.0
	DefaultTableWidth    = 375.0
	DefaultBallRadius    = 12.0
	DefaultPocketRadius  = 18.0 // 1.5 * DefaultBallRadius
	DefaultPocketSetback = 0.0
	DefaultCornerMouth   = 2.0 // in pocket radii, measured from the corner along each rail
	DefaultSideMouth     = 1.5 // in pocket radii, measured from the rail midpoint

	DefaultFriction        = 180.0 // units/s^2, linear model
	DefaultDamping         = 0.56  // fraction of speed kept per second, exponential model
	DefaultMinSpeed        = 2.0
	DefaultBallRestitution = 1.0
	DefaultRailRestitution = 1.0

	DefaultBreakSpeedMin = 900.0
	DefaultBreakSpeedMax = 1300.0

	DefaultKitchenRatio  = 0.25
	DefaultFootSpotRatio = 0.75
	DefaultRackGap       = 0.02 // fraction of a ball radius left between racked balls

	DefaultTickRate = 120
)

// FrictionModel selects how rolling resistance slows a ball.
type FrictionModel string

const (
	FrictionLinear      FrictionModel = "linear"
	FrictionExponential FrictionModel = "exponential"
)

var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params holds every tunable constant of the simulation. Field tags let the
// config layer decode a physics file straight into it.
type Params struct {
	TableLength   float64 `yaml:"table_length" json:"table_length"`
	TableWidth    float64 `yaml:"table_width" json:"table_width"`
	BallRadius    float64 `yaml:"ball_radius" json:"ball_radius"`
	PocketRadius  float64 `yaml:"pocket_radius" json:"pocket_radius"`
	PocketSetback float64 `yaml:"pocket_setback" json:"pocket_setback"`
	CornerMouth   float64 `yaml:"corner_mouth" json:"corner_mouth"`
	SideMouth     float64 `yaml:"side_mouth" json:"side_mouth"`

	FrictionModel   FrictionModel `yaml:"friction_model" json:"friction_model"`
	Friction        float64       `yaml:"friction" json:"friction"`
	Damping         float64       `yaml:"damping" json:"damping"`
	MinSpeed        float64       `yaml:"min_speed" json:"min_speed"`
	BallRestitution float64       `yaml:"ball_restitution" json:"ball_restitution"`
	RailRestitution float64       `yaml:"rail_restitution" json:"rail_restitution"`

	BreakSpeedMin float64 `yaml:"break_speed_min" json:"break_speed_min"`
	BreakSpeedMax float64 `yaml:"break_speed_max" json:"break_speed_max"`

	KitchenRatio  float64 `yaml:"kitchen_ratio" json:"kitchen_ratio"`
	FootSpotRatio float64 `yaml:"foot_spot_ratio" json:"foot_spot_ratio"`
	RackGap       float64 `yaml:"rack_gap" json:"rack_gap"`
}

// DefaultParams returns the stock table.
func DefaultParams() Params {
	return Params{
		TableLength:     DefaultTableLength,
		TableWidth:      DefaultTableWidth,
		BallRadius:      DefaultBallRadius,
		PocketRadius:    DefaultPocketRadius,
		PocketSetback:   DefaultPocketSetback,
		CornerMouth:     DefaultCornerMouth,
		SideMouth:       DefaultSideMouth,
		FrictionModel:   FrictionLinear,
		Friction:        DefaultFriction,
		Damping:         DefaultDamping,
		MinSpeed:        DefaultMinSpeed,
		BallRestitution: DefaultBallRestitution,
		RailRestitution: DefaultRailRestitution,
		BreakSpeedMin:   DefaultBreakSpeedMin,
		BreakSpeedMax:   DefaultBreakSpeedMax,
		KitchenRatio:    DefaultKitchenRatio,
		FootSpotRatio:   DefaultFootSpotRatio,
		RackGap:         DefaultRackGap,
	}
}

// Validate checks ranges that do not depend on the assembled table.
func (p Params) Validate() error {
	check := func(ok bool, field string, v float64) error {
		if ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return nil
		}
		return fmt.Errorf("%w: %s=%v", ErrInvalidParams, field, v)
	}

	checks := []error{
		check(p.TableLength > 0, "table_length", p.TableLength),
		check(p.TableWidth > 0, "table_width", p.TableWidth),
		check(p.BallRadius > 0, "ball_radius", p.BallRadius),
		check(p.PocketRadius > 0, "pocket_radius", p.PocketRadius),
		check(p.PocketSetback >= 0, "pocket_setback", p.PocketSetback),
		check(p.CornerMouth > 0, "corner_mouth", p.CornerMouth),
		check(p.SideMouth > 0, "side_mouth", p.SideMouth),
		check(p.Friction >= 0, "friction", p.Friction),
		check(p.Damping > 0 && p.Damping <= 1, "damping", p.Damping),
		check(p.MinSpeed >= 0, "min_speed", p.MinSpeed),
		check(p.BallRestitution >= 0 && p.BallRestitution <= 1, "ball_restitution", p.BallRestitution),
		check(p.RailRestitution >= 0 && p.RailRestitution <= 1, "rail_restitution", p.RailRestitution),
		check(p.BreakSpeedMin > 0, "break_speed_min", p.BreakSpeedMin),
		check(p.BreakSpeedMax >= p.BreakSpeedMin, "break_speed_max", p.BreakSpeedMax),
		check(p.KitchenRatio > 0 && p.KitchenRatio < 1, "kitchen_ratio", p.KitchenRatio),
		check(p.FootSpotRatio > 0 && p.FootSpotRatio < 1, "foot_spot_ratio", p.FootSpotRatio),
		check(p.RackGap >= 0, "rack_gap", p.RackGap),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	switch p.FrictionModel {
	case FrictionLinear, FrictionExponential:
	default:
		return fmt.Errorf("%w: friction_model=%q", ErrInvalidParams, p.FrictionModel)
	}
	return nil
}
