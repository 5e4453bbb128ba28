// ABOUTME: Rational time bases and timestamp rescaling
// ABOUTME: Converts timestamps between packet, sample and microsecond clocks
package audio

import "fmt"

// Rational is a time base expressed as Num/Den seconds per tick.
type Rational struct {
	Num int
	Den int
}

// Microseconds is the time base of every packet leaving a transcoder.
var Microseconds = Rational{Num: 1, Den: 1_000_000}

// IsZero reports whether the time base is unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts ts from one time base to another using truncating integer
// division, e.g. Rescale(960, {1,48000}, Microseconds) == 20000.
func Rescale(ts int64, from, to Rational) int64 {
	if from == to || from.IsZero() || to.IsZero() {
		return ts
	}
	return ts * int64(from.Num) * int64(to.Den) / (int64(from.Den) * int64(to.Num))
}
