package listener

// Listener type names, used as fixed-scheduler task keys and accepted by the
// management RPC's start/shutdown operations.
const (
	TypeBlock                          = "block"
	TypePreGrouping                    = "pre_grouping"
	TypePostCommitGrouping             = "post_commit_grouping"
	TypePostGrouping                   = "post_grouping"
	TypeNewRandomnessTask              = "new_randomness_task"
	TypeReadyToHandleRandomnessTask    = "ready_to_handle_randomness_task"
	TypeRandomnessSignatureAggregation = "randomness_signature_aggregation"
)

// Types lists every listener type the node can schedule.
var Types = []string{
	TypeBlock,
	TypePreGrouping,
	TypePostCommitGrouping,
	TypePostGrouping,
	TypeNewRandomnessTask,
	TypeReadyToHandleRandomnessTask,
	TypeRandomnessSignatureAggregation,
}
