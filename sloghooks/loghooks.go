package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	FallbackEvery uint64
	BackfillEvery uint64
	RejectedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	fallbackCtr atomic.Uint64
	backfillCtr atomic.Uint64
	rejectedCtr atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RemoteFallback(op, key string, err error) {
	if h.l == nil || !sample(h.opts.FallbackEvery, &h.fallbackCtr) {
		return
	}
	h.l.Warn("tiercache.remote_fallback",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) PartialFailure(op, key string, err error) {
	if h.l == nil {
		return
	}
	// every partial invalidation gets logged; these are the dangerous ones
	h.l.Error("tiercache.partial_failure",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) Backfill(key string) {
	if h.l == nil || !sample(h.opts.BackfillEvery, &h.backfillCtr) {
		return
	}
	h.l.Debug("tiercache.backfill",
		"key", h.redact(key))
}

func (h *Hooks) LocalSetRejected(key string) {
	if h.l == nil || !sample(h.opts.RejectedEvery, &h.rejectedCtr) {
		return
	}
	h.l.Warn("tiercache.local_set_rejected",
		"key", h.redact(key))
}
