package normalize

import "github.com/saikuru0/oshatori/domain"

// PackedToRGBA converts a backend's packed 0xRRGGBB color value to canonical
// RGBA with full opacity. The function is total: bits above the low 24 are
// masked off, so out-of-range input wraps deterministically.
func PackedToRGBA(packed uint32) domain.RGBA {
	packed &= 0xffffff
	return domain.RGBA{
		uint8(packed >> 16),
		uint8(packed >> 8),
		uint8(packed),
		0xff,
	}
}

// PackRGB is the inverse of PackedToRGBA for the color channels; alpha is
// dropped.
func PackRGB(c domain.RGBA) uint32 {
	return uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}
