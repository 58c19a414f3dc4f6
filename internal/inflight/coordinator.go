// Package inflight keeps at most one request alive at a time.
package inflight

import "context"

// Token identifies one logical request. Its context is cancelled as soon as
// a newer request starts or the coordinator is cancelled.
type Token struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the context the request must run under
func (t Token) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// Generation returns the token's sequence number; zero means no token
func (t Token) Generation() uint64 {
	return t.gen
}

// Coordinator issues request tokens. Only the most recent token is current;
// results carrying any other token must be dropped. Not safe for concurrent
// use: it belongs to the Update loop.
type Coordinator struct {
	parent  context.Context
	gen     uint64
	current Token
	live    bool
}

// New creates a coordinator whose tokens derive from parent
func New(parent context.Context) *Coordinator {
	if parent == nil {
		parent = context.Background()
	}
	return &Coordinator{parent: parent}
}

// Start cancels the current token and returns a fresh one
func (c *Coordinator) Start() Token {
	c.Cancel()

	c.gen++
	ctx, cancel := context.WithCancel(c.parent)
	c.current = Token{gen: c.gen, ctx: ctx, cancel: cancel}
	c.live = true
	return c.current
}

// Cancel aborts and invalidates the current token. No-op when none is live.
func (c *Coordinator) Cancel() {
	if !c.live {
		return
	}
	c.current.cancel()
	c.live = false
}

// Current reports whether t is the live token
func (c *Coordinator) Current(t Token) bool {
	return c.live && t.gen != 0 && t.gen == c.current.gen
}

// Finish releases t once its result has been accepted. Stale tokens are
// ignored.
func (c *Coordinator) Finish(t Token) {
	if !c.Current(t) {
		return
	}
	c.current.cancel()
	c.live = false
}

// Busy reports whether a token is live
func (c *Coordinator) Busy() bool {
	return c.live
}
