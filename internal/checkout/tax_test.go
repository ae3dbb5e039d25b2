package checkout

import "testing"

func TestGST(t *testing.T) {
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{100, 5},
		{130, 7},  // 6.5 rounds up
		{129, 6},  // 6.45 rounds down
		{10, 1},   // 0.5 rounds up
		{9, 0},    // 0.45 rounds down
		{180, 9},
		{546, 27}, // 27.3 rounds down
	}

	for _, tc := range cases {
		if got := GST(tc.subtotal); got != tc.want {
			t.Errorf("GST(%d) = %d, want %d", tc.subtotal, got, tc.want)
		}
	}
}
