//go:build !unix

package socketops

// Real is unavailable on non-Unix platforms: the routing core relies
// on raw fd syscalls (non-blocking connect, poll, SO_ERROR) that this
// package only implements for unix build targets. See real_unix.go.
func Real() SocketOps {
	panic("socketops: Real() requires a unix build target")
}
