package cadence

import "runtime"

// goroutineID returns the current goroutine's ID, parsed from the
// "goroutine NNN [" header of runtime.Stack. Dispatchers use it as their
// thread identity; it is never exposed as a general-purpose API.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
