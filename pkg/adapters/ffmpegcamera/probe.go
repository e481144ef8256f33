package ffmpegcamera

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// VideoInfo describes the first video track of an MP4 file.
type VideoInfo struct {
	Codec  string
	Width  int
	Height int
}

// ProbeMP4File reads the video track description of an MP4 file.
func ProbeMP4File(path string) (VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return ProbeMP4(f)
}

// ProbeMP4 reads the video track description from r.
func ProbeMP4(r io.ReadSeeker) (VideoInfo, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	var moovs []*mp4.MoovBox
	if file.Init != nil && file.Init.Moov != nil {
		moovs = append(moovs, file.Init.Moov)
	}
	if file.Moov != nil {
		moovs = append(moovs, file.Moov)
	}
	for _, moov := range moovs {
		for _, trak := range moov.Traks {
			if info, ok := videoTrack(trak); ok {
				return info, nil
			}
		}
	}
	return VideoInfo{}, fmt.Errorf("no video track found")
}

func videoTrack(trak *mp4.TrakBox) (VideoInfo, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return VideoInfo{}, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return VideoInfo{}, false
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
			return VideoInfo{Codec: vse.Type(), Width: int(vse.Width), Height: int(vse.Height)}, true
		}
	}
	return VideoInfo{}, false
}
