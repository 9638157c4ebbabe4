package domain

import "unicode/utf16"

const guestName = "Guest"

// Avatar holds the hues (0-359) the render boundary paints the trader with.
type Avatar struct {
	Hue   int `json:"hue"`
	Shirt int `json:"shirt"`
	Chair int `json:"chair"`
	Hair  int `json:"hair"`
}

// AvatarFor derives a stable palette from the player name.
// The hash is a 31-multiplier over UTF-16 code units with 32-bit wraparound,
// so a given name always renders the same trader.
func AvatarFor(name string) Avatar {
	if name == "" {
		name = guestName
	}
	hue := HashToHue(name)
	return Avatar{
		Hue:   hue,
		Shirt: (hue + 210) % 360,
		Chair: (hue + 30) % 360,
		Hair:  (hue + 300) % 360,
	}
}

// HashToHue maps a string to a hue in [0, 360).
func HashToHue(s string) int {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % 360)
}
