package server

import "testing"

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.png", true},
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"anim.gif", true},
		{"SHOT.PNG", true},
		{"Mixed.JpEg", true},
		{"virus.exe", false},
		{"doc.pdf", false},
		{"noextension", false},
		{"", false},
		{"archive.png.exe", false},
	}
	for _, tt := range tests {
		if got := allowedFile(tt.name); got != tt.want {
			t.Errorf("allowedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\boot.ini", "boot.ini"},
		{"/abs/path/cat.jpg", "cat.jpg"},
		{"my holiday pic.png", "my_holiday_pic.png"},
		{"weïrdé.gif", "we_rd_.gif"},
		{"...", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := secureFilename(tt.in); got != tt.want {
			t.Errorf("secureFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
