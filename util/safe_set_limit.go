package util

import "golang.org/x/sync/errgroup"

// SafeSetLimit sets the concurrency limit on g. A zero limit would make
// every subsequent Go call block forever, so treat it as a programming
// error and panic while the stack still names the caller. Negative limits
// mean unlimited, as in errgroup itself.
func SafeSetLimit(g *errgroup.Group, limit int) {
	if limit == 0 {
		panic("limit cannot be 0")
	}

	g.SetLimit(limit)
}
