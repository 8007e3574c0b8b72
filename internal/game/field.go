package game

import "math"

// Pin is a static obstacle. Pins are created by the layout and never mutated.
type Pin struct {
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Pocket is a scoring zone on the bottom edge covering [MinX, MaxX).
type Pocket struct {
	Index  int     `json:"index"`
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
	Payout int     `json:"payout"`
}

// Field holds the static geometry of a machine.
type Field struct {
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	LandingY    float64  `json:"landing_y"`
	Pins        []Pin    `json:"pins"`
	Pockets     []Pocket `json:"pockets"`
	PocketWidth float64  `json:"pocket_width"`
}

// NewField builds the pin lattice and pocket row for cfg.
func NewField(cfg Config) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pockets, err := GeneratePockets(cfg.PocketCount, cfg.FieldWidth, cfg.Payouts)
	if err != nil {
		return nil, err
	}
	return &Field{
		Width:       cfg.FieldWidth,
		Height:      cfg.FieldHeight,
		LandingY:    cfg.LandingY,
		Pins:        GeneratePins(cfg.Pins, cfg.FieldWidth),
		Pockets:     pockets,
		PocketWidth: pockets[0].MaxX - pockets[0].MinX,
	}, nil
}

// GeneratePins lays out a brick-offset grid. Odd rows are shifted right by half
// a column; pins touching either wall are discarded. The result depends only on
// the arguments.
func GeneratePins(g PinGrid, fieldWidth float64) []Pin {
	pins := make([]Pin, 0, g.Rows*g.Cols)
	for row := 0; row < g.Rows; row++ {
		phase := 0.0
		if row%2 == 1 {
			phase = g.ColSpacing / 2
		}
		y := g.OffsetY + float64(row)*g.RowSpacing
		for col := 0; col < g.Cols; col++ {
			x := g.OffsetX + float64(col)*g.ColSpacing + phase
			if x-g.Radius <= 0 || x+g.Radius >= fieldWidth {
				continue
			}
			pins = append(pins, Pin{Position: NewVec2(x, y), Radius: g.Radius})
		}
	}
	return pins
}

// GeneratePockets splits the bottom edge into count equal zones. When the width
// is not a multiple of count the last pocket absorbs the remainder.
func GeneratePockets(count int, fieldWidth float64, payouts []int) ([]Pocket, error) {
	if count <= 0 {
		return nil, configErr("pocket_count", "must be > 0, got %d", count)
	}
	if len(payouts) == 0 {
		return nil, configErr("payouts", "payout table is empty")
	}
	if len(payouts) != count {
		return nil, configErr("payouts", "has %d entries for %d pockets", len(payouts), count)
	}
	if !positive(fieldWidth) || fieldWidth < float64(count) {
		return nil, configErr("field_width", "%v cannot hold %d pockets", fieldWidth, count)
	}

	width := math.Floor(fieldWidth / float64(count))
	pockets := make([]Pocket, count)
	for i := range pockets {
		pockets[i] = Pocket{
			Index:  i,
			MinX:   float64(i) * width,
			MaxX:   float64(i+1) * width,
			Payout: payouts[i],
		}
	}
	pockets[count-1].MaxX = fieldWidth
	return pockets, nil
}

// PocketAt returns the pocket under x using the field's pocket width.
func (f *Field) PocketAt(x float64) Pocket {
	return f.Pockets[ComputePocket(x, f.PocketWidth, len(f.Pockets))]
}
