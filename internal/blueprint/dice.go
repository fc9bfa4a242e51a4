package blueprint

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// Dice is a parsed dice string such as "1d4", "3d6+1-2d2", or "17". Flat
// numbers are treated as one-sided dice so every segment analyzes the same
// way.
type Dice struct {
	source string
	dice   []die
}

type die struct {
	quantity int
	size     int
}

var (
	diceCharset    = regexp.MustCompile(`^[\d\sd+-]+$`)
	diceSegment    = regexp.MustCompile(`[+-]?[^+-]+`)
	diceRoll       = regexp.MustCompile(`^([+-]?\d+)d(\d+)$`)
	diceBonus      = regexp.MustCompile(`^([+-]?\d+)$`)
	diceInvalidOps = regexp.MustCompile(`\+{2,}|-[-+]+`)
)

// ParseDice validates and parses a dice string.
func ParseDice(s string) (*Dice, error) {
	if !diceCharset.MatchString(s) {
		return nil, fmt.Errorf("dice string %q may contain only 0-9, +, -, d, or spaces", s)
	}
	compact := strings.Join(strings.Fields(s), "")
	if diceInvalidOps.MatchString(compact) {
		return nil, fmt.Errorf("dice string %q has multiple operators in a row", s)
	}

	d := &Dice{source: compact}
	for _, seg := range diceSegment.FindAllString(compact, -1) {
		if m := diceRoll.FindStringSubmatch(seg); m != nil {
			q, _ := strconv.Atoi(m[1])
			size, _ := strconv.Atoi(m[2])
			if size < 1 {
				return nil, fmt.Errorf("die %q has no sides", seg)
			}
			d.dice = append(d.dice, die{quantity: q, size: size})
			continue
		}
		if m := diceBonus.FindStringSubmatch(seg); m != nil {
			q, _ := strconv.Atoi(m[1])
			d.dice = append(d.dice, die{quantity: q, size: 1})
			continue
		}
		return nil, fmt.Errorf("dice segment %q must be (number) or (number)d(number)", seg)
	}
	return d, nil
}

// Average returns the mean roll of the dice string.
func (d *Dice) Average() float64 {
	val := 0.0
	for _, die := range d.dice {
		val += float64(die.quantity) * (1.0 + float64(die.size)) / 2.0
	}
	return val
}

// Minimum returns the lowest possible roll.
func (d *Dice) Minimum() int {
	val := 0
	for _, die := range d.dice {
		if die.quantity >= 0 {
			val += die.quantity
		} else {
			val += die.quantity * die.size
		}
	}
	return val
}

// Maximum returns the highest possible roll.
func (d *Dice) Maximum() int {
	val := 0
	for _, die := range d.dice {
		if die.quantity >= 0 {
			val += die.quantity * die.size
		} else {
			val += die.quantity
		}
	}
	return val
}

// Roll simulates one roll of the dice string.
func (d *Dice) Roll(rng *rand.Rand) int {
	val := 0
	for _, die := range d.dice {
		q := die.quantity
		neg := false
		if q < 0 {
			q, neg = -q, true
		}
		for i := 0; i < q; i++ {
			roll := rng.Intn(die.size) + 1
			if neg {
				val -= roll
			} else {
				val += roll
			}
		}
	}
	return val
}

func (d *Dice) String() string {
	return d.source
}
