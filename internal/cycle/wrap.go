package cycle

// Wrap returns x modulo n in [0, n). n must be positive.
func Wrap(x, n int) int {
	m := x % n
	if m < 0 {
		m += n
	}
	return m
}
