package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize is the longest side of the thumbnail the hash is computed from.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash placeholder for encoded image data.
// Uses 4x3 components on a thumbnail of at most 64px.
func ComputeBlurHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img down with nearest-neighbour sampling, keeping the aspect ratio.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= blurHashSize && srcH <= blurHashSize {
		return img
	}

	dstW, dstH := blurHashSize, blurHashSize
	if srcW > srcH {
		dstH = max(1, srcH*blurHashSize/srcW)
	} else {
		dstW = max(1, srcW*blurHashSize/srcH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			dst.Set(x, y, img.At(bounds.Min.X+int(float64(x)*xRatio), bounds.Min.Y+int(float64(y)*yRatio)))
		}
	}
	return dst
}
