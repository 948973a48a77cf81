package animation

import "time"

// DefaultFrameInterval paces renderers at roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

var (
	// BaselineScale is the contracted size held at rest and while exhaling.
	BaselineScale = Scale{Outer: 1, Inner: 1}
	// ExpandedScale is the size reached while inhaling or holding.
	ExpandedScale = Scale{Outer: 1.5, Inner: 1.3}
)
