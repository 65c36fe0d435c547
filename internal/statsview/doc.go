// Package statsview is an optional runtime statistics server. The real
// server is built only when the statsview build tag is present:
//
//	go build -tags statsview ./cmd/avrsim
//
// After launch, graphs of the Go runtime (heap, goroutines, GC pauses) are
// viewable at:
//
//	localhost:12600/debug/statsview
//
// Without the build tag, Launch does nothing and Available returns false.
package statsview
