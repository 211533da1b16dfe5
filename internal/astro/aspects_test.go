package astro

import (
	"strings"
	"testing"
	"time"
)

func pos(b Body, lon float64) Position {
	sign, deg := SignOf(lon)
	return Position{Body: b, Longitude: lon, Sign: sign, SignDegree: deg}
}

func TestAspectsWithin_SyntheticChart(t *testing.T) {
	positions := []Position{
		pos(Sun, 10),
		pos(Moon, 12.5),  // соединение с Солнцем, орбис 2.5
		pos(Mars, 100),   // квадрат к Солнцу, орбис 0
		pos(Venus, 130),  // трин к Солнцу, орбис 0; без аспекта к Марсу (30°)
		pos(Saturn, 190), // оппозиция к Солнцу, орбис 0
	}

	aspects := AspectsWithin(positions)

	find := func(a, b Body) (Aspect, bool) {
		for _, asp := range aspects {
			if asp.A == a && asp.B == b {
				return asp, true
			}
		}
		return Aspect{}, false
	}

	if asp, ok := find(Sun, Moon); !ok || asp.Kind != Conjunction {
		t.Errorf("Sun-Moon: %+v, ok=%v, want Conjunction", asp, ok)
	}
	if asp, ok := find(Sun, Mars); !ok || asp.Kind != Square {
		t.Errorf("Sun-Mars: %+v, ok=%v, want Square", asp, ok)
	}
	if asp, ok := find(Sun, Venus); !ok || asp.Kind != Trine {
		t.Errorf("Sun-Venus: %+v, ok=%v, want Trine", asp, ok)
	}
	if asp, ok := find(Sun, Saturn); !ok || asp.Kind != Opposition {
		t.Errorf("Sun-Saturn: %+v, ok=%v, want Opposition", asp, ok)
	}
	if _, ok := find(Mars, Venus); ok {
		t.Error("Mars-Venus at 30° must not aspect")
	}
}

func TestAspectsWithin_OrbBoundary(t *testing.T) {
	// Секстиль с орбисом ровно 6° ещё засчитывается, 6.5° — уже нет.
	within := AspectsWithin([]Position{pos(Sun, 0), pos(Moon, 66)})
	if len(within) != 1 || within[0].Kind != Sextile {
		t.Errorf("66° separation: %+v, want one Sextile", within)
	}

	outside := AspectsWithin([]Position{pos(Sun, 0), pos(Moon, 66.5)})
	if len(outside) != 0 {
		t.Errorf("66.5° separation: %+v, want none", outside)
	}
}

func TestAspectsWithin_WrapAround(t *testing.T) {
	// Угловое расстояние считается через 0° Овна: 355° и 2° — это 7°.
	aspects := AspectsWithin([]Position{pos(Sun, 355), pos(Moon, 2)})
	if len(aspects) != 1 || aspects[0].Kind != Conjunction {
		t.Fatalf("wrap-around: %+v, want one Conjunction", aspects)
	}
	if aspects[0].Orb < 6.9 || aspects[0].Orb > 7.1 {
		t.Errorf("orb = %v, want ~7", aspects[0].Orb)
	}
}

func TestAspectsBetween_TransitToNatal(t *testing.T) {
	natal := []Position{pos(Sun, 0)}
	transit := []Position{pos(Mars, 91), pos(Jupiter, 200)}

	aspects := AspectsBetween(transit, natal)
	if len(aspects) != 1 {
		t.Fatalf("aspects = %+v, want exactly one", aspects)
	}
	if aspects[0].A != Mars || aspects[0].B != Sun || aspects[0].Kind != Square {
		t.Errorf("aspect = %+v, want transit Mars Square natal Sun", aspects[0])
	}
}

func TestChart_Markdown(t *testing.T) {
	c := Compute("Natal Chart", time.Date(1987, 3, 21, 6, 45, 0, 0, time.UTC),
		"Porto, Portugal", 41.1579, -8.6291)

	md := c.Markdown()
	for _, want := range []string{
		"## Natal Chart",
		"Porto, Portugal",
		"| Body | Sign | Position | Motion |",
		"Sun",
		"### Aspects",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestWheelSVG(t *testing.T) {
	c := Compute("Current Transits", time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		"Berlin, Germany", 52.52, 13.405)

	svg := WheelSVG(c)
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Fatal("not a complete SVG document")
	}
	// Все двенадцать глифов знаков присутствуют.
	for s := range 12 {
		if !strings.Contains(svg, Sign(s).Glyph()) {
			t.Errorf("SVG missing glyph for %s", Sign(s))
		}
	}
	if !strings.Contains(svg, "Current Transits") {
		t.Error("SVG missing chart title")
	}
}
