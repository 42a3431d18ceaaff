package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// collect drains a sample sequence into a slice of points.
func collect(width, height, stride int) []image.Point {
	var points []image.Point
	for x, y := range Sample(width, height, stride) {
		points = append(points, image.Pt(x, y))
	}

	return points
}

// TestSample_RowMajorWithinBounds verifies order and bounds for non-multiple dimensions.
func TestSample_RowMajorWithinBounds(t *testing.T) {
	t.Parallel()

	got := collect(25, 12, 10)
	want := []image.Point{
		{0, 0}, {10, 0}, {20, 0},
		{0, 10}, {10, 10}, {20, 10},
	}

	require.Equal(t, want, got)
	require.Len(t, got, ProbeCount(25, 12, 10))
}

// TestSample_Degenerate checks empty frames and non-positive strides.
func TestSample_Degenerate(t *testing.T) {
	t.Parallel()

	require.Empty(t, collect(0, 0, 10))
	require.Empty(t, collect(0, 50, 10))
	require.Empty(t, collect(50, 0, 10))
	require.Zero(t, ProbeCount(0, 10, 10))

	require.Len(t, collect(3, 2, 0), 6)
	require.Len(t, collect(3, 2, -4), 6)
	require.Equal(t, 6, ProbeCount(3, 2, 0))
}

// TestSample_StopsEarly ensures the sequence honours an early break.
func TestSample_StopsEarly(t *testing.T) {
	t.Parallel()

	n := 0
	for range Sample(100, 100, 1) {
		n++
		if n == 3 {
			break
		}
	}

	require.Equal(t, 3, n)
}

// TestImage_RGB reads pixels through every fast path and the generic fallback.
func TestImage_RGB(t *testing.T) {
	t.Parallel()

	rgba := image.NewRGBA(image.Rect(5, 5, 8, 7))
	rgba.SetRGBA(6, 6, color.RGBA{R: 10, G: 200, B: 30, A: 255})

	f := FromImage(rgba)
	require.Equal(t, 3, f.Width())
	require.Equal(t, 2, f.Height())

	r, g, b := f.RGB(1, 1)
	require.Equal(t, [3]uint8{10, 200, 30}, [3]uint8{r, g, b})

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	r, g, b = FromImage(nrgba).RGB(0, 0)
	require.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 77})

	r, g, b = FromImage(gray).RGB(0, 0)
	require.Equal(t, [3]uint8{77, 77, 77}, [3]uint8{r, g, b})
}

// releasable counts Release calls.
type releasable struct {
	*Image

	// released is the number of Release calls observed.
	released int
}

func (r *releasable) Release() { r.released++ }

// TestRelease calls Release only on frames that implement it.
func TestRelease(t *testing.T) {
	t.Parallel()

	plain := FromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	Release(plain)

	f := &releasable{Image: plain}
	Release(f)
	require.Equal(t, 1, f.released)
}
