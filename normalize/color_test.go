package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saikuru0/oshatori/domain"
)

func TestPackedToRGBA(t *testing.T) {
	tests := []struct {
		name   string
		packed uint32
		want   domain.RGBA
	}{
		{"black", 0x000000, domain.RGBA{0, 0, 0, 0xff}},
		{"white", 0xffffff, domain.RGBA{0xff, 0xff, 0xff, 0xff}},
		{"mixed", 0x12f034, domain.RGBA{0x12, 0xf0, 0x34, 0xff}},
		{"high bits masked", 0xff123456, domain.RGBA{0x12, 0x34, 0x56, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PackedToRGBA(tt.packed))
		})
	}
}

func TestPackRGB_RoundTrip(t *testing.T) {
	for _, packed := range []uint32{0x000000, 0xffffff, 0xc0ffee, 0x123456} {
		assert.Equal(t, packed, PackRGB(PackedToRGBA(packed)))
	}

	// Out-of-range input wraps through the mask, then round-trips stably.
	masked := PackRGB(PackedToRGBA(0xaa123456))
	assert.Equal(t, uint32(0x123456), masked)
	assert.Equal(t, masked, PackRGB(PackedToRGBA(masked)))
}
