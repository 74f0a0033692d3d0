// Package threadname derives the short, kernel-visible name given to
// each pair worker's goroutine-equivalent OS thread, reproducing a
// specific legacy naming scheme bug-for-bug since operators already
// grep for it in `ps`/`top` output.
package threadname

import "strings"

// maxLen is the longest name the underlying platform thread-naming
// call accepts, including the prefix and separator.
const maxLen = 15

const routingPrefix = "routing"

// Make derives a worker thread name from a route's configured name
// and a short per-route-kind prefix. If routeName does not begin with
// "routing", the suffix is the literal "parse err". Otherwise the
// part of routeName after "routing" (and its following ':', if any)
// becomes the suffix, with any text up through and including the
// first "_default_" stripped first. The final "<prefix>:<suffix>" is
// clipped to maxLen characters.
func Make(routeName, prefix string) string {
	suffix := "parse err"
	if strings.HasPrefix(routeName, routingPrefix) {
		suffix = strings.TrimPrefix(routeName, routingPrefix)
		suffix = strings.TrimPrefix(suffix, ":")
		if idx := strings.Index(suffix, "_default_"); idx >= 0 {
			suffix = suffix[idx+len("_default_"):]
		}
	}

	full := prefix + ":" + suffix
	if len(full) > maxLen {
		full = full[:maxLen]
	}
	return full
}
