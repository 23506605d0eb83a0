// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Color is the attribute a play has to match unless it is wild.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorNone   Color = "none" // wild-family cards and "no override"
)

// Colors lists the four concrete colors in deck-building order.
var Colors = [...]Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Concrete reports whether c is one of the four playable colors.
func (c Color) Concrete() bool {
	switch c {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return true
	}
	return false
}

// ParseColor converts client input into a concrete Color.
func ParseColor(s string) (Color, bool) {
	c := Color(s)
	return c, c.Concrete()
}

// Kind identifies what a card does when played.
type Kind string

const (
	KindNumber       Kind = "number"
	KindSkip         Kind = "skip"
	KindReverse      Kind = "reverse"
	KindDrawTwo      Kind = "draw_two"
	KindWild         Kind = "wild"
	KindWildDrawFour Kind = "wild_draw_four"
)

// IsWild is true for the colorless kinds that require a declared color.
func (k Kind) IsWild() bool {
	return k == KindWild || k == KindWildDrawFour
}

// IsAction is true for the colored non-number kinds.
func (k Kind) IsAction() bool {
	return k == KindSkip || k == KindReverse || k == KindDrawTwo
}

// NoValue is the face value of every card that is not a number card.
const NoValue = -1

// Card is an immutable playing card. Value is 0-9 for number cards and NoValue otherwise.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Kind  Kind      `json:"kind"`
	Value int       `json:"value"`
}

func (c Card) String() string {
	if c.Kind == KindNumber {
		return fmt.Sprintf("%s %d", c.Color, c.Value)
	}
	if c.Kind.IsWild() {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Kind)
}

// MarshalJSON writes a null value for non-number cards.
func (c Card) MarshalJSON() ([]byte, error) {
	var value *int
	if c.Kind == KindNumber {
		v := c.Value
		value = &v
	}
	return json.Marshal(struct {
		ID    uuid.UUID `json:"id"`
		Color Color     `json:"color"`
		Kind  Kind      `json:"kind"`
		Value *int      `json:"value"`
	}{c.ID, c.Color, c.Kind, value})
}
