package cube

import "testing"

func TestNamedColor(t *testing.T) {
	tests := []struct {
		name string
		want Color
	}{
		{"red", Color{0xFF, 0x00, 0x00}},
		{"RED", Color{0xFF, 0x00, 0x00}},
		{"black", Color{0x00, 0x00, 0x00}},
		{"off", Color{0x00, 0x00, 0x00}},
		{"orange", Color{0xFF, 0x80, 0x00}},
	}

	for _, tt := range tests {
		got, err := NamedColor(tt.name)
		if err != nil {
			t.Errorf("NamedColor(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NamedColor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := NamedColor("chartreuse-ish"); err == nil {
		t.Error("NamedColor should reject unknown names")
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{input: "ff8000", want: Color{0xFF, 0x80, 0x00}},
		{input: "#ff8000", want: Color{0xFF, 0x80, 0x00}},
		{input: "000000", want: Color{}},
		{input: "fff", wantErr: true},
		{input: "gg0000", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := HexColor(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("HexColor(%q) should fail", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("HexColor(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HexColor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	if c, err := ParseColor("blue"); err != nil || c != (Color{0, 0, 0xFF}) {
		t.Errorf("ParseColor(blue) = %v, %v", c, err)
	}
	if c, err := ParseColor("#102030"); err != nil || c != (Color{0x10, 0x20, 0x30}) {
		t.Errorf("ParseColor(#102030) = %v, %v", c, err)
	}
	if _, err := ParseColor("not-a-color"); err == nil {
		t.Error("ParseColor should reject unresolvable input")
	}
}

func TestScale(t *testing.T) {
	red := Color{0xFF, 0x00, 0x00}

	if got := Scale(red, 1); got != red {
		t.Errorf("Scale(red, 1) = %v, want %v", got, red)
	}
	if got := Scale(red, 0); got != (Color{}) {
		t.Errorf("Scale(red, 0) = %v, want black", got)
	}
	if got := Scale(red, 0.5); got.R != 0x7F {
		t.Errorf("Scale(red, 0.5).R = 0x%02X, want 0x7F", got.R)
	}

	// Levels are clamped
	if got := Scale(red, 2); got != red {
		t.Errorf("Scale(red, 2) = %v, want %v", got, red)
	}
	if got := Scale(red, -1); got != (Color{}) {
		t.Errorf("Scale(red, -1) = %v, want black", got)
	}
}

func TestColor_String(t *testing.T) {
	if got := (Color{0xFF, 0x80, 0x00}).String(); got != "#ff8000" {
		t.Errorf("String() = %q, want #ff8000", got)
	}
}
