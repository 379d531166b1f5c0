package featureflag

type Flag string

const (
	// Ray queries return the nearest hit child of leaf batches instead of
	// the first one.
	FlagNearestLeafHit Flag = "NEAREST_LEAF_HIT"

	// Scenes are only rebuilt on explicit rebuild requests.
	FlagDisableAutoRebuild Flag = "DISABLE_AUTO_REBUILD"
)
