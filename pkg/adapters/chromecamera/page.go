package chromecamera

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"strings"

	"github.com/user/certscan/pkg/ports"
)

// capturePage is served from loopback, which browsers treat as a secure context.
// The Go side drives it through window.certscan.
const capturePage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>certscan capture</title></head>
<body>
<video id="video" playsinline></video>
<canvas id="canvas" hidden></canvas>
<button id="start">Start camera</button>
<script>
(() => {
  const video = document.getElementById("video");
  const canvas = document.getElementById("canvas");
  let stream = null;

  const kind = (e, refused) =>
    e && (e.name === "NotAllowedError" || e.name === "SecurityError") ? refused : "device";

  window.certscan = {
    lastPlay: null,

    async acquire(facing, width, height, muted) {
      if (!window.isSecureContext) return { error: "insecure" };
      if (!navigator.mediaDevices || !navigator.mediaDevices.getUserMedia) return { error: "unsupported" };
      try {
        stream = await navigator.mediaDevices.getUserMedia({
          video: { facingMode: facing, width: { ideal: width }, height: { ideal: height } },
        });
      } catch (e) {
        return { error: kind(e, "permission"), message: e.name + ": " + e.message };
      }
      video.muted = muted;
      const s = stream.getVideoTracks()[0].getSettings();
      return { width: s.width || 0, height: s.height || 0 };
    },

    async play() {
      if (!stream) return { error: "device", message: "no stream" };
      video.srcObject = stream;
      try {
        await video.play();
        return {};
      } catch (e) {
        return { error: kind(e, "gesture"), message: e.name + ": " + e.message };
      }
    },

    ready() {
      if (!stream || video.readyState < video.HAVE_ENOUGH_DATA) return null;
      return { width: video.videoWidth, height: video.videoHeight };
    },

    snapshot() {
      const track = stream && stream.getVideoTracks()[0];
      if (!track || track.readyState === "ended") return { error: "ended" };
      canvas.width = video.videoWidth;
      canvas.height = video.videoHeight;
      canvas.getContext("2d").drawImage(video, 0, 0);
      return { data: canvas.toDataURL("image/png") };
    },

    release() {
      if (stream) stream.getTracks().forEach((t) => t.stop());
      stream = null;
      video.srcObject = null;
    },
  };

  document.getElementById("start").addEventListener("click", async () => {
    window.certscan.lastPlay = await window.certscan.play();
  });
})();
</script>
</body>
</html>
`

// pageResult is what the page functions resolve to.
type pageResult struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Data    string `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// err maps a page error onto the capture sentinels.
func (r pageResult) err() error {
	var sentinel error
	switch r.Error {
	case "":
		return nil
	case "unsupported":
		sentinel = ports.ErrUnsupported
	case "insecure":
		sentinel = ports.ErrInsecureContext
	case "permission":
		sentinel = ports.ErrPermissionDenied
	case "gesture":
		sentinel = ports.ErrGestureRequired
	case "ended":
		sentinel = ports.ErrStreamEnded
	default:
		sentinel = ports.ErrDevice
	}
	if r.Message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, r.Message)
}

// pageServer serves the capture page on a loopback port.
type pageServer struct {
	listener net.Listener
	server   *http.Server
}

func startPageServer() (*pageServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(capturePage))
	})
	s := &pageServer{listener: ln, server: &http.Server{Handler: mux}}
	go s.server.Serve(ln)
	return s, nil
}

// URL returns the page address, e.g. http://127.0.0.1:41234/.
func (s *pageServer) URL() string {
	return "http://" + s.listener.Addr().String() + "/"
}

func (s *pageServer) Close() error {
	return s.server.Close()
}

// decodeDataURL decodes a base64 image data URL.
func decodeDataURL(url string) (image.Image, error) {
	const marker = ";base64,"
	i := strings.Index(url, marker)
	if !strings.HasPrefix(url, "data:image/") || i < 0 {
		return nil, fmt.Errorf("not an image data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(url[i+len(marker):])
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return png.Decode(bytes.NewReader(raw))
}
