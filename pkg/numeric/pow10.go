package numeric

import "github.com/holiman/uint256"

var pow10Cache = map[int]*uint256.Int{}

// pow10 returns 10^n as a *uint256.Int, memoized since every scaled type
// calls it on every big_mul/big_div.
func pow10(n int) *uint256.Int {
	if v, ok := pow10Cache[n]; ok {
		return v
	}
	v := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := 0; i < n; i++ {
		v = new(uint256.Int).Mul(v, ten)
	}
	pow10Cache[n] = v
	return v
}
