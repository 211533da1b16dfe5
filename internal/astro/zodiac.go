package astro

import "math"

// Sign — знак зодиака.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [...]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signGlyphs = [...]string{
	"♈", "♉", "♊", "♋", "♌", "♍", "♎", "♏", "♐", "♑", "♒", "♓",
}

var signElements = [...]string{
	"Fire", "Earth", "Air", "Water", "Fire", "Earth",
	"Air", "Water", "Fire", "Earth", "Air", "Water",
}

var signModalities = [...]string{
	"Cardinal", "Fixed", "Mutable", "Cardinal", "Fixed", "Mutable",
	"Cardinal", "Fixed", "Mutable", "Cardinal", "Fixed", "Mutable",
}

// String возвращает английское имя знака.
func (s Sign) String() string {
	if s < 0 || int(s) >= len(signNames) {
		return "Unknown"
	}
	return signNames[s]
}

// Glyph возвращает символ знака.
func (s Sign) Glyph() string {
	if s < 0 || int(s) >= len(signGlyphs) {
		return "?"
	}
	return signGlyphs[s]
}

// Element возвращает стихию знака.
func (s Sign) Element() string {
	return signElements[s]
}

// Modality возвращает крест знака.
func (s Sign) Modality() string {
	return signModalities[s]
}

// SignOf возвращает знак и градус внутри знака для эклиптической долготы.
func SignOf(longitude float64) (Sign, float64) {
	lon := normalize(longitude)
	idx := int(lon / 30)
	return Sign(idx), lon - float64(idx)*30
}

// normalize приводит угол к диапазону [0, 360).
func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
