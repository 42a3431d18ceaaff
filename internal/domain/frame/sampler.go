package frame

import "iter"

// DefaultStride probes every 10th pixel along each axis.
const DefaultStride = 10

// Sample yields the probe coordinates of a width x height frame at the given stride,
// row by row, left to right. Strides below 1 probe every pixel; empty frames yield nothing.
func Sample(width, height, stride int) iter.Seq2[int, int] {
	if stride < 1 {
		stride = 1
	}

	return func(yield func(x, y int) bool) {
		for y := 0; y < height; y += stride {
			for x := 0; x < width; x += stride {
				if !yield(x, y) {
					return
				}
			}
		}
	}
}

// ProbeCount returns how many coordinates Sample yields for the same arguments.
func ProbeCount(width, height, stride int) int {
	if width <= 0 || height <= 0 {
		return 0
	}

	if stride < 1 {
		stride = 1
	}

	return ((width + stride - 1) / stride) * ((height + stride - 1) / stride)
}
