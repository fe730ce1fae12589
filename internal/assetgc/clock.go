package assetgc

import "time"

// Clock abstracts the delay between retry attempts so tests can drive the
// retry loop without wall-clock waits.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock sleeps for real.
func SystemClock() Clock { return realClock{} }
