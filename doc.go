// Package readypoll provides a scalable event-readiness notification engine:
// a kernel-style subsystem that lets a caller register interest in a set of
// I/O sources, then efficiently retrieve those sources that become ready.
//
// # Architecture
//
// An [Engine] owns an interest set keyed by [SourceKey], a ready/overflow
// queue pair used to hand off events across the transfer phase without
// holding the hot lock during caller copies, and a bounded-nesting wakeup
// protocol that allows one Engine to monitor another.
//
// The three control operations ([Engine.Add], [Engine.Modify],
// [Engine.Delete]) and the blocking [Engine.Wait] operation form the
// public surface. Sources are anything implementing [Source]; the module
// ships a concrete, optionally-compiled epoll/kqueue-backed source (see
// fdsource_linux.go, fdsource_darwin.go) alongside the abstract contract.
//
// # Delivery modes
//
// A registration's [EventMask] selects level-triggered (default),
// edge-triggered ([Edge]), or one-shot ([OneShot]) delivery. See
// [Edge] and [OneShot] for the harvest semantics of each.
//
// # Thread safety
//
// [Engine] methods are safe for concurrent use from multiple goroutines.
// The wakeup callback invoked by a [Source] (via [WaitHook.Notify]) may be
// called from any goroutine, including from within another Engine's own
// wakeup callback (bounded by [MaxNests]); it never blocks.
//
// # Usage
//
//	e := readypoll.New()
//	defer e.Close()
//
//	if err := e.Add(src, 0xA, readypoll.Readable); err != nil {
//	    log.Fatal(err)
//	}
//
//	out := make([]readypoll.Event, 8)
//	n, err := e.Wait(context.Background(), out, 100*time.Millisecond)
package readypoll
