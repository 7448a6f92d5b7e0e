// imageprocessor.go - Prepares complaint photos before they are sent to the model

package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/townsquare/complaint_analyzer/internal/domain"
)

// Photos whose quality score falls below this get a mild exposure correction.
const lowQualityThreshold = 50.0

// SupportedImageTypes are the content types the model providers accept inline.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectContentType sniffs the content type of uploaded bytes, falling back to the declared one
// when sniffing is inconclusive.
func DetectContentType(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared == "" {
		return sniffed
	}
	return declared
}

// PrepareImage decodes, auto-orients and downsizes a photo so its longest side is at most
// maxDimension, re-encoding PNG as PNG and everything else as JPEG.
// On any failure it returns the original image unchanged together with the error,
// so callers can log and carry on with the original bytes.
func PrepareImage(img *domain.Image, maxDimension int) (*domain.Image, error) {
	if img == nil || len(img.Data) == 0 {
		return img, fmt.Errorf("no image data")
	}

	decoded, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return img, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		if width > height {
			decoded = imaging.Resize(decoded, maxDimension, 0, imaging.Lanczos)
		} else {
			decoded = imaging.Resize(decoded, 0, maxDimension, imaging.Lanczos)
		}
	}

	if analyzeImageQuality(decoded) < lowQualityThreshold {
		decoded = applyExposureCorrection(decoded)
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	switch DetectContentType(img.Data, img.ContentType) {
	case "image/png":
		err = png.Encode(&buf, decoded)
		contentType = "image/png"
	default:
		err = jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return img, fmt.Errorf("failed to encode processed image: %w", err)
	}

	return &domain.Image{Data: buf.Bytes(), ContentType: contentType}, nil
}

// analyzeImageQuality analyzes image and returns quality score (0-100)
func analyzeImageQuality(img image.Image) float64 {
	bounds := img.Bounds()

	var totalBrightness float64
	var minBrightness float64 = 255
	var maxBrightness float64 = 0
	pixelCount := 0

	// Sample pixels (every 10th pixel for performance)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 10 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 10 {
			r, g, b, _ := img.At(x, y).RGBA()
			brightness := (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3.0

			totalBrightness += brightness
			if brightness < minBrightness {
				minBrightness = brightness
			}
			if brightness > maxBrightness {
				maxBrightness = brightness
			}
			pixelCount++
		}
	}

	if pixelCount == 0 {
		return 0
	}

	avgBrightness := totalBrightness / float64(pixelCount)
	contrast := maxBrightness - minBrightness

	// Ideal: avgBrightness = 128, contrast = 200+
	brightnessScore := 100.0 - math.Abs(avgBrightness-128.0)/1.28
	contrastScore := math.Min(contrast/2.0, 100.0)

	return (brightnessScore * 0.4) + (contrastScore * 0.6)
}

// applyExposureCorrection brightens and adds contrast to dark or flat photos
// (night-time streetlight reports are the common case). Colour is preserved.
func applyExposureCorrection(img image.Image) image.Image {
	result := imaging.AdjustGamma(img, 1.3)
	result = imaging.AdjustContrast(result, 20)
	result = imaging.Sharpen(result, 0.8)
	return result
}
