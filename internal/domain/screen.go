package domain

import "fmt"

// Screen is the session's position in the game flow.
type Screen uint8

const (
	ScreenStart  Screen = iota // Name entry
	ScreenAvatar               // Avatar confirmation
	ScreenMarket               // Active simulation
)

func (s Screen) String() string {
	switch s {
	case ScreenStart:
		return "start"
	case ScreenAvatar:
		return "avatar"
	case ScreenMarket:
		return "market"
	default:
		return "unknown"
	}
}

// MarshalText renders the screen by name in JSON payloads.
func (s Screen) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a screen name.
func (s *Screen) UnmarshalText(b []byte) error {
	switch string(b) {
	case "start":
		*s = ScreenStart
	case "avatar":
		*s = ScreenAvatar
	case "market":
		*s = ScreenMarket
	default:
		return fmt.Errorf("unknown screen: %q", b)
	}
	return nil
}
