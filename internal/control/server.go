package control

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/grpchealth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// readHeaderTimeout bounds how long a server waits to read request
// headers.
const readHeaderTimeout = 10 * time.Second

// healthServiceName is the health-checked service name reported by
// grpchealth.
const healthServiceName = "netsim.v1.ControlService"

// NewServer builds the control API's http.Server: the API's JSON
// handlers alongside a gRPC health endpoint, served over h2c so plain
// HTTP/2 clients (e.g. a CLI health probe) work without TLS.
func NewServer(addr string, api *API, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", api.Handler())

	checker := grpchealth.NewStaticChecker(
		grpchealth.HealthV1ServiceName,
		healthServiceName,
	)
	mux.Handle(grpchealth.NewHandler(checker))

	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
