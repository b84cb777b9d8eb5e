package runtime

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var stackBuf = sync.Pool{
	New: func() any { b := make([]byte, 64); return &b },
}

// GoroutineID parses the id of the calling goroutine from its stack header.
func GoroutineID() int64 {
	bp := stackBuf.Get().(*[]byte)
	defer stackBuf.Put(bp)

	b := (*bp)[:runtime.Stack(*bp, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}

	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		panic("runtime: cannot parse goroutine id: " + err.Error())
	}
	return id
}

// CallerFrame returns the first frame of the caller's stack accepted by matched.
func CallerFrame(matched func(frame runtime.Frame) bool) *runtime.Frame {
	pcs := make([]uintptr, 16)
	depth := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:depth])
	for {
		f, more := frames.Next()
		if matched(f) {
			return &f
		}
		if !more {
			return nil
		}
	}
}
