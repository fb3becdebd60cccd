// Package bufpool provides a size-bucketed byte-slice pool: Get/Put
// backed by sync.Pool, bucketed by power-of-two size the way sync.Pool
// consumers usually are, so a write buffer's backing array can be
// reused across requests instead of allocated fresh every time.
package bufpool

import "sync"

const numBuckets = 21 // 1<<0 .. 1<<20 covers ZK's default 1 MiB jute.maxbuffer

var pools [numBuckets]sync.Pool

func init() {
	for i := range pools {
		size := 1 << uint(i)
		pools[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
}

func bucketFor(n int) int {
	b := 0
	size := 1
	for size < n && b < numBuckets-1 {
		size <<= 1
		b++
	}
	return b
}

// Get returns an empty byte slice (length 0) with capacity of at least
// n, backed by pooled capacity, ready to be appended to.
func Get(n int) []byte {
	if n <= 0 {
		return nil
	}
	b := bucketFor(n)
	ptr := pools[b].Get().(*[]byte)
	buf := *ptr
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	return buf[:0]
}

// Put returns a slice to its bucket for reuse. Slices whose capacity
// does not match a bucket exactly are dropped rather than pooled.
func Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	b := bucketFor(cap(buf))
	if 1<<uint(b) != cap(buf) {
		return
	}
	buf = buf[:cap(buf)]
	pools[b].Put(&buf)
}
