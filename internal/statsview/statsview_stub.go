//go:build !statsview

package statsview

import "io"

// Address is the local address the stats server would listen on.
const Address = "localhost:12600"

// Launch does nothing without the statsview build tag.
func Launch(_ io.Writer) {}

// Available reports whether Launch starts a server in this build.
func Available() bool {
	return false
}
