package astro

import (
	"fmt"
	"math"
)

// AspectKind — тип мажорного аспекта.
type AspectKind int

const (
	Conjunction AspectKind = iota
	Sextile
	Square
	Trine
	Opposition
)

var aspectNames = [...]string{
	"Conjunction", "Sextile", "Square", "Trine", "Opposition",
}

// aspectAngles — точные углы аспектов в градусах.
var aspectAngles = [...]float64{0, 60, 90, 120, 180}

// aspectOrbs — допустимые орбисы в градусах.
var aspectOrbs = [...]float64{8, 6, 7, 8, 8}

// String возвращает английское имя аспекта.
func (k AspectKind) String() string {
	if k < 0 || int(k) >= len(aspectNames) {
		return "Unknown"
	}
	return aspectNames[k]
}

// Angle возвращает точный угол аспекта.
func (k AspectKind) Angle() float64 {
	return aspectAngles[k]
}

// Aspect — найденный аспект между двумя телами.
type Aspect struct {
	// A, B — тела аспекта. Для кросс-аспектов A — транзитное, B — натальное.
	A, B Body

	// Kind — тип аспекта.
	Kind AspectKind

	// Orb — отклонение от точного угла в градусах.
	Orb float64
}

// String возвращает строку вида "Mars Square Sun (orb 2.31°)".
func (a Aspect) String() string {
	return fmt.Sprintf("%s %s %s (orb %.2f°)", a.A, a.Kind, a.B, a.Orb)
}

// separation возвращает угловое расстояние двух долгот, [0, 180].
func separation(a, b float64) float64 {
	diff := math.Abs(normalize(a) - normalize(b))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// matchAspect подбирает аспект для углового расстояния.
// Возвращается самый тесный из подходящих по орбису.
func matchAspect(sep float64) (AspectKind, float64, bool) {
	best := AspectKind(-1)
	bestOrb := 0.0
	for k := range aspectAngles {
		orb := math.Abs(sep - aspectAngles[k])
		if orb <= aspectOrbs[k] && (best < 0 || orb < bestOrb) {
			best = AspectKind(k)
			bestOrb = orb
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, bestOrb, true
}

// AspectsWithin находит мажорные аспекты между телами одной карты.
// Каждая пара рассматривается один раз.
func AspectsWithin(positions []Position) []Aspect {
	var out []Aspect
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			sep := separation(positions[i].Longitude, positions[j].Longitude)
			if kind, orb, ok := matchAspect(sep); ok {
				out = append(out, Aspect{
					A:    positions[i].Body,
					B:    positions[j].Body,
					Kind: kind,
					Orb:  orb,
				})
			}
		}
	}
	return out
}

// AspectsBetween находит аспекты транзитных тел к натальным.
// Рассматриваются все пары, включая одноимённые тела.
func AspectsBetween(transit, natal []Position) []Aspect {
	var out []Aspect
	for _, t := range transit {
		for _, n := range natal {
			sep := separation(t.Longitude, n.Longitude)
			if kind, orb, ok := matchAspect(sep); ok {
				out = append(out, Aspect{A: t.Body, B: n.Body, Kind: kind, Orb: orb})
			}
		}
	}
	return out
}
