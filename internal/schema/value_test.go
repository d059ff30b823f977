package schema

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"text", KindText},
		{"img", KindImage},
		{"image", KindImage},
		{"number", KindNumber},
		{"Text", KindUnknown},
		{"", KindUnknown},
		{"date", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.tag); got != tt.want {
			t.Errorf("KindOf(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	tests := []struct {
		tag  string
		want any
	}{
		{"text", "none"},
		{"img", PlaceholderImage},
		{"image", PlaceholderImage},
		{"number", nil},
		{"boolean", nil},
		{"TEXT", nil},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := Default(tt.tag).Raw(); got != tt.want {
				t.Errorf("Default(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestDefaultKind(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
		name string
	}{
		{"text", KindText, "text"},
		{"img", KindImage, "image"},
		{"image", KindImage, "image"},
		{"number", KindNumber, "number"},
		{"color", KindUnknown, "unknown"},
		{"", KindUnknown, "unknown"},
	}
	for _, tt := range tests {
		got := Default(tt.tag).Kind()
		if got != tt.want {
			t.Errorf("Default(%q).Kind() = %s, want %s", tt.tag, got, tt.want)
		}
		if got.String() != tt.name {
			t.Errorf("Default(%q).Kind().String() = %q, want %q", tt.tag, got.String(), tt.name)
		}
	}
}
