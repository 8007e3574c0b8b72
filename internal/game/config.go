package game

import "math"

// PinGrid describes the staggered pin lattice.
type PinGrid struct {
	Rows       int     `yaml:"rows" json:"rows"`
	Cols       int     `yaml:"cols" json:"cols"`
	RowSpacing float64 `yaml:"row_spacing" json:"row_spacing"`
	ColSpacing float64 `yaml:"col_spacing" json:"col_spacing"`
	OffsetX    float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY    float64 `yaml:"offset_y" json:"offset_y"`
	Radius     float64 `yaml:"radius" json:"radius"`
}

// Config is the static machine configuration supplied at session start.
// A session never mutates it.
type Config struct {
	FieldWidth  float64 `yaml:"field_width" json:"field_width"`
	FieldHeight float64 `yaml:"field_height" json:"field_height"`
	LandingY    float64 `yaml:"landing_y" json:"landing_y"`

	Pins       PinGrid `yaml:"pins" json:"pins"`
	BallRadius float64 `yaml:"ball_radius" json:"ball_radius"`

	Gravity             float64 `yaml:"gravity" json:"gravity"`
	BounceDamping       float64 `yaml:"bounce_damping" json:"bounce_damping"`
	ResponseCoefficient float64 `yaml:"response_coefficient" json:"response_coefficient"`
	EnergyRetention     float64 `yaml:"energy_retention" json:"energy_retention"`
	MaxSpeed            float64 `yaml:"max_speed" json:"max_speed"`
	PinScatter          float64 `yaml:"pin_scatter" json:"pin_scatter"`

	LaunchX       float64 `yaml:"launch_x" json:"launch_x"`
	LaunchY       float64 `yaml:"launch_y" json:"launch_y"`
	LaunchJitter  float64 `yaml:"launch_jitter" json:"launch_jitter"`
	MinPower      float64 `yaml:"min_power" json:"min_power"`
	MaxPower      float64 `yaml:"max_power" json:"max_power"`
	DefaultPower  float64 `yaml:"default_power" json:"default_power"`
	BaseSpeed     float64 `yaml:"base_speed" json:"base_speed"`
	PowerFactor   float64 `yaml:"power_factor" json:"power_factor"`
	LateralFactor float64 `yaml:"lateral_factor" json:"lateral_factor"`

	MaxBallTicks        int `yaml:"max_ball_ticks" json:"max_ball_ticks"`
	LaunchCooldownTicks int `yaml:"launch_cooldown_ticks" json:"launch_cooldown_ticks"`

	InitialCredits int `yaml:"initial_credits" json:"initial_credits"`
	LaunchCost     int `yaml:"launch_cost" json:"launch_cost"`
	MaxCredits     int `yaml:"max_credits" json:"max_credits"`

	PocketCount int   `yaml:"pocket_count" json:"pocket_count"`
	Payouts     []int `yaml:"payouts" json:"payouts"`

	JackpotPocket   int     `yaml:"jackpot_pocket" json:"jackpot_pocket"` // -1 disables
	JackpotChance   float64 `yaml:"jackpot_chance" json:"jackpot_chance"`
	InitialJackpot  int     `yaml:"initial_jackpot" json:"initial_jackpot"`
	MaxJackpotAward int     `yaml:"max_jackpot_award" json:"max_jackpot_award"`
	JackpotSeed     int     `yaml:"jackpot_seed" json:"jackpot_seed"`
	JackpotFloor    int     `yaml:"jackpot_floor" json:"jackpot_floor"`
}

// DefaultConfig returns the reference machine.
func DefaultConfig() Config {
	payouts := make([]int, len(DefaultPayouts))
	copy(payouts, DefaultPayouts)

	return Config{
		FieldWidth:  FieldWidth,
		FieldHeight: FieldHeight,
		LandingY:    LandingY,

		Pins: PinGrid{
			Rows:       PinRows,
			Cols:       PinCols,
			RowSpacing: PinRowSpacing,
			ColSpacing: PinColSpacing,
			OffsetX:    PinOffsetX,
			OffsetY:    PinOffsetY,
			Radius:     PinRadius,
		},
		BallRadius: BallRadius,

		Gravity:             Gravity,
		BounceDamping:       BounceDamping,
		ResponseCoefficient: ResponseCoefficient,
		EnergyRetention:     EnergyRetention,
		MaxSpeed:            MaxSpeed,
		PinScatter:          PinScatter,

		LaunchX:       FieldWidth / 2,
		LaunchY:       LaunchY,
		LaunchJitter:  LaunchJitter,
		MinPower:      MinPower,
		MaxPower:      MaxPower,
		DefaultPower:  DefaultPower,
		BaseSpeed:     BaseSpeed,
		PowerFactor:   PowerFactor,
		LateralFactor: LateralFactor,

		MaxBallTicks:        MaxBallTicks,
		LaunchCooldownTicks: LaunchCooldownTicks,

		InitialCredits: InitialCredits,
		LaunchCost:     LaunchCost,
		MaxCredits:     MaxCredits,

		PocketCount: len(payouts),
		Payouts:     payouts,

		JackpotPocket:   JackpotPocket,
		JackpotChance:   JackpotChance,
		InitialJackpot:  InitialJackpot,
		MaxJackpotAward: MaxJackpotAward,
		JackpotSeed:     JackpotSeed,
		JackpotFloor:    JackpotFloor,
	}
}

// Validate checks the configuration once, at session start.
func (c Config) Validate() error {
	if !positive(c.FieldWidth) {
		return configErr("field_width", "must be > 0, got %v", c.FieldWidth)
	}
	if !positive(c.FieldHeight) {
		return configErr("field_height", "must be > 0, got %v", c.FieldHeight)
	}
	if !positive(c.LandingY) || c.LandingY > c.FieldHeight {
		return configErr("landing_y", "must be in (0, %v], got %v", c.FieldHeight, c.LandingY)
	}
	if !positive(c.BallRadius) || 2*c.BallRadius >= c.FieldWidth {
		return configErr("ball_radius", "must be > 0 and narrower than the field, got %v", c.BallRadius)
	}
	if c.Pins.Rows < 0 || c.Pins.Cols < 0 {
		return configErr("pins", "rows and cols must be >= 0")
	}
	if c.Pins.Radius < 0 || c.Pins.RowSpacing < 0 || c.Pins.ColSpacing < 0 {
		return configErr("pins", "radius and spacing must be >= 0")
	}
	if !positive(c.Gravity) {
		return configErr("gravity", "must be > 0, got %v", c.Gravity)
	}
	if !(c.BounceDamping > 0 && c.BounceDamping < 1) {
		return configErr("bounce_damping", "must be in (0,1), got %v", c.BounceDamping)
	}
	if !positive(c.ResponseCoefficient) {
		return configErr("response_coefficient", "must be > 0, got %v", c.ResponseCoefficient)
	}
	if !(c.EnergyRetention > 0 && c.EnergyRetention <= 1) {
		return configErr("energy_retention", "must be in (0,1], got %v", c.EnergyRetention)
	}
	if !positive(c.MaxSpeed) {
		return configErr("max_speed", "must be > 0, got %v", c.MaxSpeed)
	}
	if c.PinScatter < 0 || c.PinScatter > 1 {
		return configErr("pin_scatter", "must be in [0,1], got %v", c.PinScatter)
	}
	if c.LaunchX <= 0 || c.LaunchX >= c.FieldWidth {
		return configErr("launch_x", "must be inside the field, got %v", c.LaunchX)
	}
	if c.LaunchY < 0 || c.LaunchY >= c.LandingY {
		return configErr("launch_y", "must be above the landing line, got %v", c.LaunchY)
	}
	if c.LaunchJitter < 0 {
		return configErr("launch_jitter", "must be >= 0")
	}
	if c.MinPower < 0 || c.MinPower > c.MaxPower {
		return configErr("min_power", "must be in [0, max_power]")
	}
	if c.DefaultPower < c.MinPower || c.DefaultPower > c.MaxPower {
		return configErr("default_power", "must be in [min_power, max_power]")
	}
	if c.MaxBallTicks <= 0 {
		return configErr("max_ball_ticks", "must be > 0")
	}
	if c.LaunchCooldownTicks < 0 {
		return configErr("launch_cooldown_ticks", "must be >= 0")
	}
	if c.LaunchCost <= 0 {
		return configErr("launch_cost", "must be > 0, got %d", c.LaunchCost)
	}
	if c.InitialCredits < 0 || c.InitialCredits > c.MaxCredits {
		return configErr("initial_credits", "must be in [0, max_credits]")
	}
	if c.PocketCount <= 0 {
		return configErr("pocket_count", "must be > 0, got %d", c.PocketCount)
	}
	if len(c.Payouts) == 0 {
		return configErr("payouts", "payout table is empty")
	}
	if len(c.Payouts) != c.PocketCount {
		return configErr("payouts", "has %d entries for %d pockets", len(c.Payouts), c.PocketCount)
	}
	for i, p := range c.Payouts {
		if p < 0 {
			return configErr("payouts", "entry %d is negative", i)
		}
	}
	if c.FieldWidth < float64(c.PocketCount) {
		return configErr("pocket_count", "%d pockets do not fit a field %v wide", c.PocketCount, c.FieldWidth)
	}
	if c.JackpotPocket >= c.PocketCount || c.JackpotPocket < -1 {
		return configErr("jackpot_pocket", "must be -1 or a pocket index, got %d", c.JackpotPocket)
	}
	if c.JackpotChance < 0 || c.JackpotChance > 1 {
		return configErr("jackpot_chance", "must be in [0,1], got %v", c.JackpotChance)
	}
	if c.InitialJackpot < 0 || c.MaxJackpotAward < 0 || c.JackpotSeed < 0 || c.JackpotFloor < 0 {
		return configErr("jackpot", "amounts must be >= 0")
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
