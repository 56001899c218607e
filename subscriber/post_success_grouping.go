package subscriber

import (
	"context"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// NewPostSuccessGroupingSubscriber installs the controller-chosen committer
// set once a DKG round has been accepted on chain, which transitions the
// group to ready (spec.md §4.5 "PostSuccessGrouping").
func NewPostSuccessGroupingSubscriber(l log.Logger, group cache.GroupInfoHandler) eventbus.Handler {
	l = l.Named("subscriber-post-success-grouping")
	return func(ctx context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.DKGSuccessEvent)
		if !ok {
			return
		}
		if err := group.SaveCommitters(ctx, ev.GroupIndex, ev.Epoch, ev.Committers); err != nil {
			l.Errorw("failed to save committers",
				"group_index", ev.GroupIndex, "epoch", ev.Epoch, "err", err)
			return
		}
		l.Infow("group marked ready", "group_index", ev.GroupIndex, "epoch", ev.Epoch,
			"committers", len(ev.Committers))
	}
}
