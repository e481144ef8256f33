package chromecamera

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/user/certscan/pkg/ports"
)

func TestPageResult_Err(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"unsupported", ports.ErrUnsupported},
		{"insecure", ports.ErrInsecureContext},
		{"permission", ports.ErrPermissionDenied},
		{"gesture", ports.ErrGestureRequired},
		{"ended", ports.ErrStreamEnded},
		{"device", ports.ErrDevice},
		{"something new", ports.ErrDevice},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := pageResult{Error: tt.code, Message: "NotAllowedError: denied"}.err()
			if !errors.Is(err, tt.want) {
				t.Errorf("err() = %v, want %v", err, tt.want)
			}
		})
	}
	if err := (pageResult{Width: 640}).err(); err != nil {
		t.Errorf("success result returned %v", err)
	}
}

func TestPageServer(t *testing.T) {
	s, err := startPageServer()
	if err != nil {
		t.Fatalf("startPageServer() error = %v", err)
	}
	defer s.Close()

	if !strings.HasPrefix(s.URL(), "http://127.0.0.1:") {
		t.Errorf("URL() = %q, want a loopback address", s.URL())
	}

	resp, err := http.Get(s.URL())
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{"window.certscan", "getUserMedia", `id="start"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page is missing %q", want)
		}
	}

	resp, err = http.Get(s.URL() + "favicon.ico")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDecodeDataURL(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.White)
	var buf bytes.Buffer
	png.Encode(&buf, src)

	img, err := decodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		t.Fatalf("decodeDataURL() error = %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	for _, bad := range []string{"", "data:text/plain;base64,aGk=", "data:image/png;base64,***"} {
		if _, err := decodeDataURL(bad); err == nil {
			t.Errorf("decodeDataURL(%q) succeeded", bad)
		}
	}
}

func TestCopyGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	same := image.NewGray(image.Rect(0, 0, 8, 8))
	copyGray(same, src)
	if same.GrayAt(7, 7).Y != 0xFF {
		t.Errorf("pixel = %d", same.GrayAt(7, 7).Y)
	}

	smaller := image.NewGray(image.Rect(0, 0, 4, 4))
	copyGray(smaller, src)
	if smaller.GrayAt(2, 2).Y != 0xFF {
		t.Errorf("scaled pixel = %d", smaller.GrayAt(2, 2).Y)
	}
}
