package batch

// ProgressSink receives pipeline lifecycle notifications, typically to drive
// a progress dialog or console output. Callbacks run synchronously on the
// pipeline's goroutine and nothing they return is consumed: they are
// fire-and-forget. A sink that panics is contained and logged; it cannot
// corrupt the batch.
type ProgressSink interface {
	// OnStart fires exactly once, before any item, with the item count.
	OnStart(total int)
	// OnItem fires before each item is processed, with the item's position
	// and the source file's base name.
	OnItem(index int, name string)
	// OnDone fires exactly once, after the batch completes or is cancelled.
	OnDone(summary Summary)
}

// NopSink is a ProgressSink that ignores every notification.
type NopSink struct{}

func (NopSink) OnStart(int)        {}
func (NopSink) OnItem(int, string) {}
func (NopSink) OnDone(Summary)     {}
