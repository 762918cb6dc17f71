package tiercache

// Hooks are lightweight callbacks for high-signal events. Implementations
// MUST be cheap and non-blocking; the cache calls them on hot paths. Wrap
// with hooks/async to decouple slow sinks.
type Hooks interface {
	// A remote failure was absorbed and the operation continued on the
	// local tier only (degraded mode, decided per call).
	RemoteFallback(op, key string, err error)

	// A combined-tier mutation landed on one tier and failed on the other.
	PartialFailure(op, key string, err error)

	// A remote hit was copied into the local tier on the read path.
	Backfill(key string)

	// The local store refused a write under pressure (admission policy).
	// The caller's Set still reports success.
	LocalSetRejected(key string)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) RemoteFallback(string, string, error) {}
func (NopHooks) PartialFailure(string, string, error) {}
func (NopHooks) Backfill(string)                      {}
func (NopHooks) LocalSetRejected(string)              {}
