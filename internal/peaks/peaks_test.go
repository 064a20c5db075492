package peaks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(rows, cols int, fill float64) [][]float64 {
	s := make([][]float64, rows)
	for i := range s {
		s[i] = make([]float64, cols)
		for j := range s[i] {
			s[i][j] = fill
		}
	}
	return s
}

func countTrue(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

func TestFindSinglePeak(t *testing.T) {
	s := grid(9, 9, -80)
	s[4][4] = 0 // single loud cell surrounded by quiet background

	cfg := Config{Connectivity: Connectivity8, Dilation: 2, Erosion: 1, AmplitudeMin: -60}
	mask := Find(s, cfg)

	require.True(t, mask[4][4])
	assert.Equal(t, 1, countTrue(mask))
}

func TestFindRespectsAmplitudeThreshold(t *testing.T) {
	s := grid(9, 9, -80)
	s[4][4] = -70 // a peak, but below A_min

	cfg := Config{Connectivity: Connectivity8, Dilation: 2, Erosion: 1, AmplitudeMin: -60}
	mask := Find(s, cfg)

	assert.Equal(t, 0, countTrue(mask))
}

func TestRaisingAmplitudeMinNeverAddsPeaks(t *testing.T) {
	s := grid(12, 12, -80)
	s[3][3] = -10
	s[8][8] = -50

	low := Find(s, Config{Connectivity: Connectivity8, Dilation: 2, Erosion: 1, AmplitudeMin: -80})
	high := Find(s, Config{Connectivity: Connectivity8, Dilation: 2, Erosion: 1, AmplitudeMin: -30})

	for i := range s {
		for j := range s[i] {
			if high[i][j] {
				assert.True(t, low[i][j], "every peak surviving a higher threshold must survive the lower one")
			}
		}
	}
}

func TestIncreasingDilationNeverAddsPeaks(t *testing.T) {
	s := grid(16, 16, -80)
	s[5][5] = -10
	s[6][7] = -20
	s[10][10] = -15

	smallD := Find(s, Config{Connectivity: Connectivity8, Dilation: 1, Erosion: 1, AmplitudeMin: -80})
	bigD := Find(s, Config{Connectivity: Connectivity8, Dilation: 6, Erosion: 1, AmplitudeMin: -80})

	for i := range s {
		for j := range s[i] {
			if bigD[i][j] {
				assert.True(t, smallD[i][j], "every peak surviving larger dilation must survive smaller dilation")
			}
		}
	}
}

func TestCoordinatesSortedByTimeThenFreq(t *testing.T) {
	mask := [][]bool{
		{true, false, true},
		{false, true, false},
	}
	times := []float64{0, 1}
	freqs := []float64{10, 20, 30}

	pt, pf := Coordinates(mask, times, freqs)
	require.Len(t, pt, 3)
	for i := 1; i < len(pt); i++ {
		if pt[i-1] == pt[i] {
			assert.LessOrEqual(t, pf[i-1], pf[i])
		} else {
			assert.Less(t, pt[i-1], pt[i])
		}
	}
}

func TestStructuringElementGrowsMonotonically(t *testing.T) {
	small := structuringElement(Connectivity8, 1)
	big := structuringElement(Connectivity8, 4)
	assert.Less(t, len(small), len(big))
}

func TestNeighborhoodMaxIgnoresOutOfBounds(t *testing.T) {
	s := [][]float64{{1, 2}, {3, 4}}
	kernel := []point{{0, 0}, {-5, -5}}
	got := neighborhoodMax(s, kernel, 0, 0)
	assert.Equal(t, 1.0, got)
	assert.NotEqual(t, math.Inf(-1), got)
}
