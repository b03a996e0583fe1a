package scanner

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"
)

// DetectTextAPI is the Rekognition operation used by TextDecoder.
type DetectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// TextDecoder reads the human-readable digits printed under EAN/UPC bars.
// It is a fallback for frames where the bars are blurred but the digits are legible;
// a candidate is accepted only when its check digit validates.
type TextDecoder struct {
	client        DetectTextAPI
	minConfidence float32
}

// NewTextDecoder creates a TextDecoder on top of a Rekognition client.
func NewTextDecoder(client DetectTextAPI) *TextDecoder {
	return &TextDecoder{client: client, minConfidence: 80}
}

// Decode implements Decoder.
func (d *TextDecoder) Decode(ctx context.Context, f Frame) (Detection, error) {
	payload := f.Raw
	if len(payload) == 0 {
		if f.Image == nil {
			return Detection{}, ErrNoBarcode
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, f.Image); err != nil {
			return Detection{}, fmt.Errorf("encode frame: %w", err)
		}
		payload = buf.Bytes()
	}

	out, err := d.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: payload},
	})
	if err != nil {
		log.Warn().Err(err).Msg("rekognition DetectText failed")
		return Detection{}, fmt.Errorf("%w: %v", ErrNoBarcode, err)
	}

	for _, td := range out.TextDetections {
		if td.Type != types.TextTypesLine || aws.ToFloat32(td.Confidence) < d.minConfidence {
			continue
		}
		if code, format, ok := gtinFromText(aws.ToString(td.DetectedText)); ok {
			return Detection{Text: code, Format: format}, nil
		}
	}
	return Detection{}, ErrNoBarcode
}

// gtinFromText collapses digit groups separated by spaces (as printed under
// EAN-13 bars, e.g. "8 901030 875021") and looks for a valid GTIN.
func gtinFromText(line string) (string, string, bool) {
	var digits strings.Builder
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			digits.Reset()
		}
	}
	code := digits.String()
	if !ValidGTIN(code) {
		return "", "", false
	}
	switch len(code) {
	case 13:
		return code, "EAN_13", true
	case 12:
		return code, "UPC_A", true
	default:
		return code, "EAN_8", true
	}
}
