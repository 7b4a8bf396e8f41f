// imageprocessor.go - Image decode, resize and enhancement for better OCR accuracy

package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/disintegration/imaging"
)

// normalizeImage decodes any supported raster format and re-encodes it as JPEG.
func (n *Normalizer) normalizeImage(ctx context.Context, data []byte) (*NormalizedImage, error) {
	rc := common.FromContext(ctx)

	rc.StartSubStep("decode_image")
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		rc.EndSubStep("failed")
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	rc.EndSubStep(fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()))

	img = resizeToFit(img, n.opts.MaxDimension)

	if n.opts.Enhance {
		rc.StartSubStep("enhance_image")
		qualityScore := analyzeImageQuality(img)
		img = enhanceForScore(img, qualityScore)
		rc.EndSubStep(fmt.Sprintf("quality score %.0f", qualityScore))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.opts.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}

	out := img.Bounds()
	return &NormalizedImage{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    out.Dx(),
		Height:   out.Dy(),
	}, nil
}

// resizeToFit shrinks img so its longest side is at most maxDimension.
func resizeToFit(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return img
	}
	if width > height {
		return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
}

// enhanceForScore picks an enhancement tier from the quality score and adds a final sharpening pass.
func enhanceForScore(img image.Image, qualityScore float64) image.Image {
	switch {
	case qualityScore < 50:
		img = applyAggressiveEnhancement(img)
	case qualityScore < 75:
		img = applyStandardEnhancement(img)
	default:
		img = applyLightEnhancement(img)
	}
	return imaging.Sharpen(img, 1.0)
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

	// Weight: 40% brightness, 60% contrast
	return (brightnessScore * 0.4) + (contrastScore * 0.6)
}

// applyLightEnhancement for good quality images
func applyLightEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 2.0)
	result = imaging.AdjustContrast(result, 30)
	result = imaging.Grayscale(result)
	result = imaging.AdjustContrast(result, 20)
	return imaging.AdjustGamma(result, 1.05)
}

// applyStandardEnhancement for medium quality images
func applyStandardEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 3.0)
	result = imaging.AdjustContrast(result, 45)
	result = imaging.AdjustBrightness(result, 15)
	result = imaging.Grayscale(result)
	result = imaging.AdjustContrast(result, 35)
	return imaging.AdjustGamma(result, 1.15)
}

// applyAggressiveEnhancement for poor quality images
func applyAggressiveEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 4.0)
	result = imaging.AdjustContrast(result, 60)
	result = imaging.AdjustBrightness(result, 25)
	result = imaging.Grayscale(result)
	result = imaging.AdjustContrast(result, 55)
	result = imaging.AdjustGamma(result, 1.3)

	// blur + sharpen removes speckle noise while keeping edges
	result = imaging.Blur(result, 0.5)
	result = imaging.Sharpen(result, 2.5)

	return imaging.AdjustContrast(result, 20)
}
