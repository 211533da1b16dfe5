package astro

import (
	"fmt"
	"strings"
	"time"
)

// Chart — вычисленная карта: положения тел и аспекты между ними
// на заданный момент в заданной точке.
type Chart struct {
	// Title — заголовок ("Natal Chart", "Current Transits").
	Title string

	// Moment — момент карты.
	Moment time.Time

	// PlaceLabel — человекочитаемое место ("Porto, Portugal").
	PlaceLabel string

	// Latitude, Longitude — координаты места в градусах.
	Latitude, Longitude float64

	// Positions — положения тел.
	Positions []Position

	// Aspects — мажорные аспекты внутри карты.
	Aspects []Aspect
}

// Compute строит карту на момент moment в точке (lat, lon).
func Compute(title string, moment time.Time, placeLabel string, lat, lon float64) *Chart {
	positions := Positions(moment)
	return &Chart{
		Title:      title,
		Moment:     moment,
		PlaceLabel: placeLabel,
		Latitude:   lat,
		Longitude:  lon,
		Positions:  positions,
		Aspects:    AspectsWithin(positions),
	}
}

// CrossAspects возвращает аспекты тел карты к телам другой карты.
func (c *Chart) CrossAspects(other *Chart) []Aspect {
	return AspectsBetween(c.Positions, other.Positions)
}

// Position возвращает положение тела в карте.
func (c *Chart) Position(b Body) (Position, bool) {
	for _, p := range c.Positions {
		if p.Body == b {
			return p, true
		}
	}
	return Position{}, false
}

// Markdown возвращает карту в виде markdown-раздела:
// заголовок, таблица положений, список аспектов.
func (c *Chart) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", c.Title)
	fmt.Fprintf(&b, "%s — %s (%.4f, %.4f)\n\n",
		c.Moment.Format("Monday, 2 January 2006 15:04 MST"),
		c.PlaceLabel, c.Latitude, c.Longitude)

	b.WriteString("| Body | Sign | Position | Motion |\n")
	b.WriteString("|------|------|----------|--------|\n")
	for _, p := range c.Positions {
		motion := "Direct"
		if p.Retrograde {
			motion = "Retrograde"
		}
		fmt.Fprintf(&b, "| %s %s | %s %s | %s | %s (%.3f°/day) |\n",
			p.Body.Glyph(), p.Body,
			p.Sign.Glyph(), p.Sign,
			FormatDegree(p.SignDegree), motion, p.Speed)
	}

	b.WriteString("\n### Aspects\n\n")
	if len(c.Aspects) == 0 {
		b.WriteString("No major aspects within orb.\n")
		return b.String()
	}
	for _, a := range c.Aspects {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}

// FormatAspects возвращает markdown-список кросс-аспектов
// с подписями ролей ("transit Mars Square natal Sun").
func FormatAspects(aspects []Aspect, roleA, roleB string) string {
	if len(aspects) == 0 {
		return "No major aspects within orb.\n"
	}
	var b strings.Builder
	for _, a := range aspects {
		fmt.Fprintf(&b, "- %s %s %s %s %s (orb %.2f°)\n",
			roleA, a.A, a.Kind, roleB, a.B, a.Orb)
	}
	return b.String()
}

// FormatDegree форматирует градус внутри знака как 12°34'.
func FormatDegree(deg float64) string {
	d := int(deg)
	m := int((deg - float64(d)) * 60)
	return fmt.Sprintf("%d°%02d'", d, m)
}
