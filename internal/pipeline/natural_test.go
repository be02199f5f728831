package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"img2", "img10", -1},
		{"img10", "img2", 1},
		{"img2", "img2", 0},
		{"IMG_001", "DSC_001", 1},
		{"a", "b", -1},
		{"A", "a", 0},
		{"file", "file2", -1},
		{"007", "7", 0},
		{"v1.2", "v1.10", -1},
		{"", "a", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, naturalCompare(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestNaturalLessOrdering(t *testing.T) {
	assert.True(t, naturalLess("photo_9.jpg", "photo_10.jpg"))
	assert.True(t, naturalLess("DSC_001.jpg", "IMG_001.jpg"))
	assert.False(t, naturalLess("photo_10.jpg", "photo_9.jpg"))
}
