package util

import (
	"context"

	"github.com/ordishs/gocore"
)

type statsKey struct{}

var defaultStat = gocore.NewStat("no root", true)

// NewStatFromContext creates a child stat of the stat carried by ctx, or of
// defaultParent when ctx has none, and returns the start time in nanos plus a
// context carrying the new stat.
func NewStatFromContext(ctx context.Context, key string, defaultParent *gocore.Stat, options ...bool) (int64, *gocore.Stat, context.Context) {
	parentStat, ok := ctx.Value(statsKey{}).(*gocore.Stat)
	if !ok {
		parentStat = defaultParent
	}

	ignoreChildren := true
	if len(options) > 0 {
		ignoreChildren = options[0]
	}

	stat := parentStat.NewStat(key, ignoreChildren)

	return gocore.CurrentNanos(), stat, context.WithValue(ctx, statsKey{}, stat)
}

// StartStatFromContext is NewStatFromContext rooted at the catch-all stat.
func StartStatFromContext(ctx context.Context, key string, options ...bool) (int64, *gocore.Stat, context.Context) {
	return NewStatFromContext(ctx, key, defaultStat, options...)
}
