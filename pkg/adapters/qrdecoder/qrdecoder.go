// Package qrdecoder implements ports.CodeDecoder with the gozxing QR reader.
package qrdecoder

import (
	"image"
	"math"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/user/certscan/pkg/ports"
)

// Options configures the decoder.
type Options struct {
	// TryHarder spends more time per frame looking for a code.
	TryHarder bool

	// PureBarcode assumes the image contains nothing but the code, as produced by
	// a QR writer. Camera frames should leave this off.
	PureBarcode bool

	// CharacterSet overrides the payload encoding guess (for example "UTF-8").
	CharacterSet string
}

// Decoder decodes QR codes from frames. It keeps no state between calls, so
// decoding the same frame twice gives the same answer.
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// New creates a QR decoder.
func New(opts Options) *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{gozxing.BarcodeFormat_QR_CODE},
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	if opts.PureBarcode {
		hints[gozxing.DecodeHintType_PURE_BARCODE] = true
	}
	if opts.CharacterSet != "" {
		hints[gozxing.DecodeHintType_CHARACTER_SET] = opts.CharacterSet
	}
	return &Decoder{hints: hints}
}

// Decode looks for a QR code in img. Any failure, including an empty payload, is a miss.
func (d *Decoder) Decode(img image.Image) (det ports.Detection, found bool) {
	if img == nil || img.Bounds().Empty() {
		return ports.Detection{}, false
	}
	// The reader panics on some degenerate finder patterns; treat that as a miss.
	defer func() {
		if r := recover(); r != nil {
			det, found = ports.Detection{}, false
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return ports.Detection{}, false
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil || result.GetText() == "" {
		return ports.Detection{}, false
	}

	origin := img.Bounds().Min
	var points []image.Point
	for _, p := range result.GetResultPoints() {
		if p == nil {
			continue
		}
		points = append(points, image.Point{
			X: origin.X + int(math.Round(p.GetX())),
			Y: origin.Y + int(math.Round(p.GetY())),
		})
	}
	return ports.Detection{Text: result.GetText(), Points: points}, true
}

var _ ports.CodeDecoder = (*Decoder)(nil)
