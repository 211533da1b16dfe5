package astro

import (
	"math"
	"time"
)

// Body — небесное тело, положение которого вычисляется.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

// Bodies — все тела в порядке отображения.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

var bodyNames = [...]string{
	"Sun", "Moon", "Mercury", "Venus", "Mars",
	"Jupiter", "Saturn", "Uranus", "Neptune", "Pluto",
}

var bodyGlyphs = [...]string{
	"☉", "☽", "☿", "♀", "♂", "♃", "♄", "♅", "♆", "♇",
}

// String возвращает английское имя тела.
func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return "Unknown"
	}
	return bodyNames[b]
}

// Glyph возвращает символ тела.
func (b Body) Glyph() string {
	if b < 0 || int(b) >= len(bodyGlyphs) {
		return "?"
	}
	return bodyGlyphs[b]
}

// Position — геоцентрическое положение тела на эклиптике.
type Position struct {
	// Body — тело.
	Body Body

	// Longitude — эклиптическая долгота в градусах [0, 360).
	Longitude float64

	// Sign — знак зодиака.
	Sign Sign

	// SignDegree — градус внутри знака [0, 30).
	SignDegree float64

	// Speed — видимая скорость в градусах за сутки.
	Speed float64

	// Retrograde — движется ли тело попятно.
	Retrograde bool
}

// elements — средние элементы орбиты на момент d суток от эпохи.
// Углы в градусах, большая полуось в а.е. (для Луны — в радиусах Земли).
type elements struct {
	N, i, w, a, e, M float64
}

// orbit — элементы на эпоху и их суточные скорости.
type orbit struct {
	N0, Nd float64
	i0, id float64
	w0, wd float64
	a0, ad float64
	e0, ed float64
	M0, Md float64
}

func (o orbit) at(d float64) elements {
	return elements{
		N: o.N0 + o.Nd*d,
		i: o.i0 + o.id*d,
		w: o.w0 + o.wd*d,
		a: o.a0 + o.ad*d,
		e: o.e0 + o.ed*d,
		M: normalize(o.M0 + o.Md*d),
	}
}

// Средние элементы орбит относительно эпохи 2000-01-00.0 UT.
var orbits = map[Body]orbit{
	Sun: {
		w0: 282.9404, wd: 4.70935e-5,
		a0: 1.0,
		e0: 0.016709, ed: -1.151e-9,
		M0: 356.0470, Md: 0.9856002585,
	},
	Moon: {
		N0: 125.1228, Nd: -0.0529538083,
		i0: 5.1454,
		w0: 318.0634, wd: 0.1643573223,
		a0: 60.2666,
		e0: 0.054900,
		M0: 115.3654, Md: 13.0649929509,
	},
	Mercury: {
		N0: 48.3313, Nd: 3.24587e-5,
		i0: 7.0047, id: 5.00e-8,
		w0: 29.1241, wd: 1.01444e-5,
		a0: 0.387098,
		e0: 0.205635, ed: 5.59e-10,
		M0: 168.6562, Md: 4.0923344368,
	},
	Venus: {
		N0: 76.6799, Nd: 2.46590e-5,
		i0: 3.3946, id: 2.75e-8,
		w0: 54.8910, wd: 1.38374e-5,
		a0: 0.723330,
		e0: 0.006773, ed: -1.302e-9,
		M0: 48.0052, Md: 1.6021302244,
	},
	Mars: {
		N0: 49.5574, Nd: 2.11081e-5,
		i0: 1.8497, id: -1.78e-8,
		w0: 286.5016, wd: 2.92961e-5,
		a0: 1.523688,
		e0: 0.093405, ed: 2.516e-9,
		M0: 18.6021, Md: 0.5240207766,
	},
	Jupiter: {
		N0: 100.4542, Nd: 2.76854e-5,
		i0: 1.3030, id: -1.557e-7,
		w0: 273.8777, wd: 1.64505e-5,
		a0: 5.20256,
		e0: 0.048498, ed: 4.469e-9,
		M0: 19.8950, Md: 0.0830853001,
	},
	Saturn: {
		N0: 113.6634, Nd: 2.38980e-5,
		i0: 2.4886, id: -1.081e-7,
		w0: 339.3939, wd: 2.97661e-5,
		a0: 9.55475,
		e0: 0.055546, ed: -9.499e-9,
		M0: 316.9670, Md: 0.0334442282,
	},
	Uranus: {
		N0: 74.0005, Nd: 1.3978e-5,
		i0: 0.7733, id: 1.9e-8,
		w0: 96.6612, wd: 3.0565e-5,
		a0: 19.18171, ad: -1.55e-8,
		e0: 0.047318, ed: 7.45e-9,
		M0: 142.5905, Md: 0.011725806,
	},
	Neptune: {
		N0: 131.7806, Nd: 3.0173e-5,
		i0: 1.7700, id: -2.55e-7,
		w0: 272.8461, wd: -6.027e-6,
		a0: 30.05826, ad: 3.313e-8,
		e0: 0.008606, ed: 2.15e-9,
		M0: 260.2471, Md: 0.005995147,
	},
}

// epoch — 2000-01-00.0 UT (31 декабря 1999, полночь UT).
var epoch = time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC)

// daysSinceEpoch возвращает суточный аргумент эфемерид для момента t.
func daysSinceEpoch(t time.Time) float64 {
	return t.Sub(epoch).Hours() / 24
}

func sind(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }
func cosd(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }

func atan2d(y, x float64) float64 {
	return normalize(math.Atan2(y, x) * 180 / math.Pi)
}

// solveKepler решает уравнение Кеплера итерациями Ньютона.
// Возвращает эксцентрическую аномалию в градусах.
func solveKepler(M, e float64) float64 {
	const rad = 180 / math.Pi
	E := M + e*rad*sind(M)*(1+e*cosd(M))
	for range 20 {
		delta := (E - e*rad*sind(E) - M) / (1 - e*cosd(E))
		E -= delta
		if math.Abs(delta) < 1e-6 {
			break
		}
	}
	return E
}

// heliocentric возвращает прямоугольные эклиптические координаты тела
// относительно Солнца (для Луны — относительно Земли).
func heliocentric(el elements) (x, y, z float64) {
	E := solveKepler(el.M, el.e)

	xv := el.a * (cosd(E) - el.e)
	yv := el.a * math.Sqrt(1-el.e*el.e) * sind(E)

	v := atan2d(yv, xv)
	r := math.Sqrt(xv*xv + yv*yv)

	x = r * (cosd(el.N)*cosd(v+el.w) - sind(el.N)*sind(v+el.w)*cosd(el.i))
	y = r * (sind(el.N)*cosd(v+el.w) + cosd(el.N)*sind(v+el.w)*cosd(el.i))
	z = r * sind(v+el.w) * sind(el.i)
	return x, y, z
}

// sunEcliptic возвращает геоцентрические координаты Солнца.
func sunEcliptic(d float64) (x, y float64) {
	el := orbits[Sun].at(d)
	E := solveKepler(el.M, el.e)

	xv := cosd(E) - el.e
	yv := math.Sqrt(1-el.e*el.e) * sind(E)

	v := atan2d(yv, xv)
	r := math.Sqrt(xv*xv + yv*yv)

	lon := normalize(v + el.w)
	return r * cosd(lon), r * sind(lon)
}

// longitudeAt возвращает геоцентрическую эклиптическую долготу тела.
func longitudeAt(b Body, d float64) float64 {
	switch b {
	case Sun:
		xs, ys := sunEcliptic(d)
		return atan2d(ys, xs)
	case Moon:
		return moonLongitude(d)
	case Pluto:
		return plutoLongitude(d)
	}

	el := orbits[b].at(d)
	xh, yh, _ := heliocentric(el)
	xs, ys := sunEcliptic(d)
	return atan2d(yh+ys, xh+xs)
}

// moonLongitude — геоцентрическая долгота Луны с главными возмущениями.
func moonLongitude(d float64) float64 {
	o := orbits[Moon]
	el := o.at(d)
	xh, yh, _ := heliocentric(el)
	lon := atan2d(yh, xh)

	// Аргументы возмущений.
	sun := orbits[Sun].at(d)
	Ms := sun.M
	Ls := normalize(Ms + sun.w)
	Mm := el.M
	Lm := normalize(Mm + el.w + el.N)
	D := Lm - Ls
	F := Lm - el.N

	lon += -1.274*sind(Mm-2*D) +
		0.658*sind(2*D) -
		0.186*sind(Ms) -
		0.059*sind(2*Mm-2*D) -
		0.057*sind(Mm-2*D+Ms) +
		0.053*sind(Mm+2*D) +
		0.046*sind(2*D-Ms) +
		0.041*sind(Mm-Ms) -
		0.035*sind(D) -
		0.031*sind(Mm+Ms) -
		0.015*sind(2*F-2*D) +
		0.011*sind(Mm-4*D)

	return normalize(lon)
}

// plutoLongitude — аппроксимация гелиоцентрической долготы Плутона,
// переведённая в геоцентрическую. Пригодна для 1900–2100 гг.
func plutoLongitude(d float64) float64 {
	S := 50.03 + 0.033459652*d
	P := 238.95 + 0.003968789*d

	lonecl := 238.9508 + 0.00400703*d -
		19.799*sind(P) + 19.848*cosd(P) +
		0.897*sind(2*P) - 4.956*cosd(2*P) +
		0.610*sind(3*P) + 1.211*cosd(3*P) -
		0.341*sind(4*P) - 0.190*cosd(4*P) +
		0.128*sind(5*P) - 0.034*cosd(5*P) -
		0.038*sind(6*P) + 0.031*cosd(6*P) +
		0.020*sind(S-P) - 0.010*cosd(S-P)

	latecl := -3.9082 -
		5.453*sind(P) - 14.975*cosd(P) +
		3.527*sind(2*P) + 1.673*cosd(2*P) -
		1.051*sind(3*P) + 0.328*cosd(3*P) +
		0.179*sind(4*P) - 0.292*cosd(4*P) +
		0.019*sind(5*P) + 0.100*cosd(5*P) -
		0.031*sind(6*P) - 0.026*cosd(6*P) +
		0.011*cosd(S-P)

	r := 40.72 + 6.68*sind(P) + 6.90*cosd(P) -
		1.18*sind(2*P) - 0.03*cosd(2*P) +
		0.15*sind(3*P) - 0.14*cosd(3*P)

	xh := r * cosd(lonecl) * cosd(latecl)
	yh := r * sind(lonecl) * cosd(latecl)

	xs, ys := sunEcliptic(d)
	return atan2d(yh+ys, xh+xs)
}

// Positions возвращает геоцентрические положения всех тел на момент t.
// Скорость и ретроградность оцениваются по положению сутками позже.
func Positions(t time.Time) []Position {
	d := daysSinceEpoch(t.UTC())
	out := make([]Position, 0, len(Bodies))

	for _, b := range Bodies {
		lon := longitudeAt(b, d)
		next := longitudeAt(b, d+1)

		// Суточное смещение, приведённое к [-180, 180).
		speed := math.Mod(next-lon+540, 360) - 180

		sign, deg := SignOf(lon)
		out = append(out, Position{
			Body:       b,
			Longitude:  lon,
			Sign:       sign,
			SignDegree: deg,
			Speed:      speed,
			Retrograde: speed < 0,
		})
	}
	return out
}
