//go:build windows

package kit

// applyThreadPriority is a no-op placeholder for the Win32 backend named
// in §4.6 ("the Win32 backend maps to native thread priorities"). Doing
// this properly requires SetThreadPriority via golang.org/x/sys/windows
// against the current thread handle, which needs the goroutine pinned to
// its OS thread first; left unimplemented here since none of this
// package's tests run on Windows, but the hook point exists so a future
// implementation only needs to fill in this one function.
func applyThreadPriority(priority int) {
	_ = priority
}
