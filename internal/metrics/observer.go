package metrics

type HubObserver interface {
	IncOnline()
	DecOnline()
	RecordPush()
	RecordDrop()
}

// PropagationObserver is notified after every collection-wide fan-out.
type PropagationObserver interface {
	ObserveFanOut(direction string, matched int64, seconds float64)
	FanOutFailed(direction string)
}

// Nop satisfies both observers and records nothing.
type Nop struct{}

func (Nop) IncOnline()                           {}
func (Nop) DecOnline()                           {}
func (Nop) RecordPush()                          {}
func (Nop) RecordDrop()                          {}
func (Nop) ObserveFanOut(string, int64, float64) {}
func (Nop) FanOutFailed(string)                  {}
