package pipeline

import "testing"

func TestDownloadName(t *testing.T) {
	tests := []struct {
		source  string
		variant string
		want    string
	}{
		{source: "/tmp/photos/beach.png", variant: "small", want: "beach-small.webp"},
		{source: "my photo.v2.jpg", variant: "large", want: "my_photo_v2-large.webp"},
		{source: "", variant: "original", want: "image-original.webp"},
	}
	for _, tc := range tests {
		if got := downloadName(tc.source, tc.variant, FormatWebP); got != tc.want {
			t.Fatalf("downloadName(%q, %q): expected %s, got %s", tc.source, tc.variant, tc.want, got)
		}
	}
}
