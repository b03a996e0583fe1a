package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ErrNoBarcode is returned when a frame contains no readable barcode.
var ErrNoBarcode = errors.New("no barcode in frame")

// Symbologies is the set of formats accepted from camera frames.
var Symbologies = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_UPC_E,
	gozxing.BarcodeFormat_CODE_128,
}

// Detection is a barcode read from a frame.
type Detection struct {
	Text   string `json:"barcode"`
	Format string `json:"format"`
}

// Decoder extracts a barcode from a frame.
type Decoder interface {
	Decode(ctx context.Context, f Frame) (Detection, error)
}

// ZXingDecoder reads 1-D barcodes restricted to Symbologies.
type ZXingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXingDecoder creates a decoder for the supported symbologies.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: Symbologies,
		gozxing.DecodeHintType_TRY_HARDER:       true,
	}}
}

// Decode implements Decoder.
func (d *ZXingDecoder) Decode(_ context.Context, f Frame) (Detection, error) {
	if f.Image == nil {
		return Detection{}, ErrNoBarcode
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(f.Image)
	if err != nil {
		return Detection{}, fmt.Errorf("%w: %v", ErrNoBarcode, err)
	}
	// Readers keep per-decode state, so each frame gets fresh ones.
	readers := []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(d.hints),
		oned.NewCode128Reader(),
	}
	var lastErr error
	for _, reader := range readers {
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			lastErr = err
			continue
		}
		return Detection{Text: result.GetText(), Format: result.GetBarcodeFormat().String()}, nil
	}
	return Detection{}, fmt.Errorf("%w: %v", ErrNoBarcode, lastErr)
}

// ChainDecoder tries each decoder in order and returns the first detection.
type ChainDecoder []Decoder

// Decode implements Decoder.
func (c ChainDecoder) Decode(ctx context.Context, f Frame) (Detection, error) {
	var errs []error
	for _, d := range c {
		det, err := d.Decode(ctx, f)
		if err == nil {
			return det, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return Detection{}, ErrNoBarcode
	}
	return Detection{}, errors.Join(errs...)
}
