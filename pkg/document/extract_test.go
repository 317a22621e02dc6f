package document

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	tests := []struct {
		name     string
		filename string
		data     string
		want     string
	}{
		{"text", "resume.txt", "\xef\xbb\xbfJane Doe\r\nEngineer\r\n", "Jane Doe\nEngineer"},
		{"markdown upper-case ext", "JD.MD", "# Senior Engineer\n", "# Senior Engineer"},
		{"html", "resume.html", "<html><head><style>p{}</style></head><body><h1>Jane  Doe</h1><p>Go <b>engineer</b></p><script>x()</script></body></html>", "Jane Doe\nGo engineer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Extract(context.Background(), tt.filename, []byte(tt.data))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRegistryRejectsUnknownTypes(t *testing.T) {
	for _, name := range []string{"resume.pdf", "resume"} {
		if _, err := Default().Extract(context.Background(), name, []byte("x")); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestTextRejectsBinary(t *testing.T) {
	if _, err := Default().Extract(context.Background(), "a.txt", []byte{0xff, 0xfe, 0x00}); err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
}

func TestRegisterCustomExtractor(t *testing.T) {
	r := NewRegistry()
	r.Register("pdf", ExtractorFunc(func(context.Context, string, []byte) (string, error) { return "decoded", nil }))
	got, err := r.Extract(context.Background(), "cv.pdf", nil)
	if err != nil || got != "decoded" {
		t.Fatalf("unexpected %q %v", got, err)
	}
}
