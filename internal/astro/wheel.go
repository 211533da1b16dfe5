package astro

import (
	"fmt"
	"math"
	"strings"
)

// Геометрия колеса.
const (
	wheelSize    = 600.0
	wheelCenter  = wheelSize / 2
	outerRadius  = 280.0
	zodiacRadius = 250.0
	planetRadius = 200.0
	aspectRadius = 170.0
)

// wheelPoint возвращает точку на окружности радиуса r для эклиптической
// долготы lon. 0° Овна слева, рост долготы против часовой стрелки.
func wheelPoint(lon, r float64) (x, y float64) {
	rad := (180 + lon) * math.Pi / 180
	return wheelCenter + r*math.Cos(rad), wheelCenter - r*math.Sin(rad)
}

// WheelSVG рисует колесо карты: зодиакальный пояс, маркеры тел
// и линии аспектов. Возвращает готовый SVG-документ.
func WheelSVG(c *Chart) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		wheelSize, wheelSize, wheelSize, wheelSize)
	b.WriteString("\n")

	fmt.Fprintf(&b, `<rect width="%.0f" height="%.0f" fill="#fdfbf5"/>`+"\n", wheelSize, wheelSize)

	// Внешнее и внутреннее кольца зодиака.
	for _, r := range []float64{outerRadius, zodiacRadius, aspectRadius} {
		fmt.Fprintf(&b, `<circle cx="%.0f" cy="%.0f" r="%.0f" fill="none" stroke="#555" stroke-width="1"/>`+"\n",
			wheelCenter, wheelCenter, r)
	}

	// Границы знаков и глифы в середине каждого сектора.
	for s := range 12 {
		lon := float64(s) * 30
		x1, y1 := wheelPoint(lon, zodiacRadius)
		x2, y2 := wheelPoint(lon, outerRadius)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555" stroke-width="1"/>`+"\n",
			x1, y1, x2, y2)

		gx, gy := wheelPoint(lon+15, (zodiacRadius+outerRadius)/2)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="20" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			gx, gy, Sign(s).Glyph())
	}

	// Линии аспектов под маркерами тел.
	byBody := make(map[Body]float64, len(c.Positions))
	for _, p := range c.Positions {
		byBody[p.Body] = p.Longitude
	}
	for _, a := range c.Aspects {
		x1, y1 := wheelPoint(byBody[a.A], aspectRadius)
		x2, y2 := wheelPoint(byBody[a.B], aspectRadius)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1" opacity="0.6"/>`+"\n",
			x1, y1, x2, y2, aspectColor(a.Kind))
	}

	// Маркеры тел.
	for _, p := range c.Positions {
		px, py := wheelPoint(p.Longitude, planetRadius)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="#222"/>`+"\n", px, py)

		tx, ty := wheelPoint(p.Longitude, planetRadius+22)
		label := p.Body.Glyph()
		if p.Retrograde {
			label += " R"
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="18" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			tx, ty, label)
	}

	// Подпись карты.
	fmt.Fprintf(&b, `<text x="%.0f" y="%.0f" font-size="14" text-anchor="middle">%s — %s</text>`+"\n",
		wheelCenter, wheelSize-12, c.Title, c.Moment.Format("2006-01-02 15:04 MST"))

	b.WriteString("</svg>\n")
	return b.String()
}

// aspectColor — цвет линии аспекта на колесе.
func aspectColor(k AspectKind) string {
	switch k {
	case Trine, Sextile:
		return "#2a7"
	case Square, Opposition:
		return "#c33"
	default:
		return "#36c"
	}
}
