//go:build statsview

package statsview

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/richardwooding/avrsim/internal/logger"
)

// Address is the local address the stats server listens on.
const Address = "localhost:12600"

const (
	path          = "/debug/statsview"
	refreshMillis = 1000
)

// Launch starts the stats server in the background and tells output where
// the graphs are served. Server failures go to the simulator log.
func Launch(output io.Writer) {
	viewer.SetConfiguration(
		viewer.WithAddr(Address),
		viewer.WithInterval(refreshMillis),
	)
	views := statsview.New()

	go func() {
		err := views.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logf("statsview", "server stopped: %v", err)
		}
	}()

	fmt.Fprintf(output, "runtime graphs at http://%s%s\n", Address, path)
}

// Available reports whether Launch starts a server in this build.
func Available() bool {
	return true
}
