package game

// Machine defaults. Ball feel (bounce height, time in play) depends on these
// values, so changing them changes the game.

const (
	FieldWidth  = 320.0
	FieldHeight = 400.0
	LandingY    = 380.0

	BallRadius = 6.0
	PinRadius  = 4.0

	Gravity             = 0.15
	BounceDamping       = 0.8 // wall restitution
	ResponseCoefficient = 1.5 // >1 over-corrects the normal component
	EnergyRetention     = 0.8 // applied after a pin reflection
	MaxSpeed            = 12.0
	PinScatter          = 0.3 // max |dx| nudge after a pin hit

	PinRows       = 12
	PinCols       = 8
	PinRowSpacing = 25.0
	PinColSpacing = 35.0
	PinOffsetX    = 20.0
	PinOffsetY    = 40.0

	LaunchY       = 10.0
	LaunchJitter  = 40.0
	MinPower      = 10.0
	MaxPower      = 100.0
	DefaultPower  = 50.0
	BaseSpeed     = 1.0
	PowerFactor   = 1.0 / 50
	LateralFactor = 1.0 / 30

	MaxBallTicks        = 3600 // one minute at 60Hz
	LaunchCooldownTicks = 30   // ~500ms at 60Hz

	InitialCredits = 1000
	LaunchCost     = 10
	MaxCredits     = 999999
	TopUpAmount    = 1000

	JackpotPocket   = 2
	JackpotChance   = 0.15
	InitialJackpot  = 10000
	MaxJackpotAward = 5000
	JackpotSeed     = 500
	JackpotFloor    = 1000
)

// DefaultPayouts is symmetric; the centre pocket pays most and is jackpot eligible.
var DefaultPayouts = []int{50, 100, 500, 100, 50}
