package domain

import (
	"encoding/json"
	"testing"
)

func TestHashToHue(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"A", 65},
		{"AB", (65*31 + 66) % 360},
		{"Guest", HashToHue("Guest")},
	}
	for _, tt := range tests {
		if got := HashToHue(tt.input); got != tt.want {
			t.Errorf("HashToHue(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestHashToHue_Range(t *testing.T) {
	names := []string{"Satoshi", "Vitalik", "a very long trader name that overflows int32 many times", "日本語"}
	for _, n := range names {
		h := HashToHue(n)
		if h < 0 || h >= 360 {
			t.Errorf("HashToHue(%q) = %d out of range", n, h)
		}
	}
}

func TestAvatarFor(t *testing.T) {
	a := AvatarFor("A")
	if a.Hue != 65 || a.Shirt != 275 || a.Chair != 95 || a.Hair != 5 {
		t.Errorf("unexpected palette: %+v", a)
	}

	if AvatarFor("") != AvatarFor("Guest") {
		t.Error("empty name should fall back to Guest")
	}
}

func TestScreen_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Screen{"screen": ScreenMarket})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"screen":"market"}` {
		t.Errorf("unexpected JSON: %s", b)
	}

	var s Screen
	if err := s.UnmarshalText([]byte("avatar")); err != nil || s != ScreenAvatar {
		t.Errorf("UnmarshalText(avatar) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("lobby")); err == nil {
		t.Error("expected error for unknown screen")
	}
}
