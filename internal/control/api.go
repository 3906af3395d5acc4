package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	netsimmetrics "github.com/go-netsim/netsimd/internal/metrics"
	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/routing"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/topology"
)

// ErrNodeNotFound is returned when a requested node ID is not
// registered.
var ErrNodeNotFound = errors.New("control: node not found")

// ErrDeviceNotFound is returned when a requested device name is not
// owned by its node.
var ErrDeviceNotFound = errors.New("control: device not found")

// ErrNodeHasNoRouter is returned when a route or LSDB query targets a
// node that has no routing element attached.
var ErrNodeHasNoRouter = errors.New("control: node has no router")

// ErrNoKernel is returned by handleScheduleLink when the API was
// constructed with no simulation kernel to schedule against.
var ErrNoKernel = errors.New("control: no simulation kernel available to schedule against")

// API exposes the simulator's topology and routing state over plain
// JSON HTTP: each operation is one net/http handler reading/writing
// JSON by hand.
type API struct {
	registry *topology.Registry
	lsdb     *routing.LSDB
	metrics  *netsimmetrics.Collector
	kernel   *simkernel.Kernel
	logger   *slog.Logger
}

// NewAPI creates an API backed by registry for topology lookups and
// lsdb for link-state and SPF queries. collector may be nil, in which
// case SPF runs and forwarding-table sizes simply go unrecorded.
// kernel may also be nil, in which case scheduled link flaps are
// rejected rather than silently never firing.
func NewAPI(registry *topology.Registry, lsdb *routing.LSDB, collector *netsimmetrics.Collector, kernel *simkernel.Kernel, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}

	return &API{
		registry: registry,
		lsdb:     lsdb,
		metrics:  collector,
		kernel:   kernel,
		logger:   logger.With(slog.String("component", "control.api")),
	}
}

// Handler returns the fully wired http.Handler for the control API,
// including logging and panic-recovery middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/nodes", a.handleListNodes)
	mux.HandleFunc("GET /v1/nodes/{id}", a.handleGetNode)
	mux.HandleFunc("GET /v1/nodes/{id}/routes", a.handleGetRoutes)
	mux.HandleFunc("GET /v1/nodes/{id}/lsdb", a.handleGetLSDB)
	mux.HandleFunc("POST /v1/nodes/{id}/devices/{device}/link", a.handleSetLink)
	mux.HandleFunc("POST /v1/nodes/{id}/devices/{device}/link/schedule", a.handleScheduleLink)
	mux.HandleFunc("POST /v1/routes/compute", a.handleComputeRoutes)

	return Chain(mux, LoggingMiddleware(a.logger), RecoveryMiddleware(a.logger))
}

// deviceView is the JSON shape of one device on a node.
type deviceView struct {
	Name     string `json:"name"`
	MacAddr  string `json:"mac_addr"`
	State    string `json:"state"`
	LinkUp   bool   `json:"link_up"`
	QueueLen int    `json:"queue_len"`
}

// nodeView is the JSON shape of one registered node.
type nodeView struct {
	ID       string       `json:"id"`
	RouterID string       `json:"router_id,omitempty"`
	Devices  []deviceView `json:"devices"`
}

func newNodeView(n *topology.Node) nodeView {
	view := nodeView{ID: n.ID}

	if n.Router != nil {
		view.RouterID = string(n.Router.ID())
	}

	for _, dev := range n.Devices() {
		view.Devices = append(view.Devices, deviceView{
			Name:     dev.Name(),
			MacAddr:  dev.MacAddr(),
			State:    dev.State().String(),
			LinkUp:   dev.LinkUp(),
			QueueLen: dev.QueueLen(),
		})
	}

	return view
}

func (a *API) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes := a.registry.Nodes()

	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, newNodeView(n))
	}

	writeJSON(w, http.StatusOK, views)
}

func (a *API) handleGetNode(w http.ResponseWriter, r *http.Request) {
	node, err := a.lookupNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, newNodeView(node))
}

// routeEntryView is the JSON shape of one forwarding table entry.
type routeEntryView struct {
	Destination string   `json:"destination"`
	Cost        uint32   `json:"cost"`
	NextHops    []string `json:"next_hops"`
}

func (a *API) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	node, err := a.lookupNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if node.Router == nil {
		writeError(w, http.StatusUnprocessableEntity, ErrNodeHasNoRouter)
		return
	}

	tree := routing.RunSPF(a.lsdb, node.Router.ID())
	table := routing.BuildForwardingTable(a.lsdb, node.Router.ID(), tree)

	if a.metrics != nil {
		a.metrics.IncSPFRuns(node.ID)
		a.metrics.SetRoutesInstalled(node.ID, len(table))
	}

	views := make([]routeEntryView, 0, len(table))
	for _, entry := range table {
		views = append(views, routeEntryView{
			Destination: string(entry.Destination),
			Cost:        entry.Cost,
			NextHops:    entry.NextHops,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

// lsaView is the JSON shape of one installed LSA.
type lsaView struct {
	RouterID       string           `json:"router_id"`
	SequenceNumber uint32           `json:"sequence_number"`
	Links          []linkRecordView `json:"links"`
}

type linkRecordView struct {
	Type        string `json:"type"`
	LinkID      string `json:"link_id"`
	LinkData    string `json:"link_data"`
	LocalDevice string `json:"local_device"`
	Metric      uint32 `json:"metric"`
}

func (a *API) handleGetLSDB(w http.ResponseWriter, r *http.Request) {
	node, err := a.lookupNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if node.Router == nil {
		writeError(w, http.StatusUnprocessableEntity, ErrNodeHasNoRouter)
		return
	}

	lsa, ok := a.lsdb.Get(node.Router.ID())
	if !ok {
		writeJSON(w, http.StatusOK, []lsaView{})
		return
	}

	view := lsaView{
		RouterID:       string(lsa.RouterID),
		SequenceNumber: lsa.SequenceNumber,
	}
	for _, link := range lsa.Links {
		view.Links = append(view.Links, linkRecordView{
			Type:        link.Type.String(),
			LinkID:      string(link.LinkID),
			LinkData:    link.LinkData,
			LocalDevice: link.LocalDevice,
			Metric:      link.Metric,
		})
	}

	writeJSON(w, http.StatusOK, []lsaView{view})
}

// setLinkRequest is the JSON body for a link up/down request.
type setLinkRequest struct {
	Up bool `json:"up"`
}

func (a *API) handleSetLink(w http.ResponseWriter, r *http.Request) {
	node, err := a.lookupNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	dev, ok := node.Device(r.PathValue("device"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrDeviceNotFound)
		return
	}

	var req setLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Up {
		dev.SetLinkUp()
	} else {
		dev.SetLinkDown()
	}

	writeJSON(w, http.StatusOK, deviceView{
		Name:     dev.Name(),
		MacAddr:  dev.MacAddr(),
		State:    dev.State().String(),
		LinkUp:   dev.LinkUp(),
		QueueLen: dev.QueueLen(),
	})
}

// scheduleLinkRequest is the JSON body for a scheduled link flap: the
// link transitions to Up (or down, if false) after DelayNanos elapses
// on the simulation kernel's virtual clock, not wall-clock time.
type scheduleLinkRequest struct {
	Up         bool  `json:"up"`
	DelayNanos int64 `json:"delay_nanos"`
}

// scheduleLinkResponse confirms a scheduled flap was accepted.
type scheduleLinkResponse struct {
	Device     string `json:"device"`
	Up         bool   `json:"up"`
	DelayNanos int64  `json:"delay_nanos"`
}

// handleScheduleLink schedules dev to transition up or down at
// DelayNanos from the kernel's current virtual time, via a
// ScheduledLinkMonitor, for driving cable-cut/maintenance-window
// scenarios from outside the simulation instead of hand-editing a
// topology's config.
func (a *API) handleScheduleLink(w http.ResponseWriter, r *http.Request) {
	if a.kernel == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoKernel)
		return
	}

	node, err := a.lookupNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	dev, ok := node.Device(r.PathValue("device"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrDeviceNotFound)
		return
	}

	var req scheduleLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	delay := time.Duration(req.DelayNanos)

	mon := p2p.NewScheduledLinkMonitor(a.kernel, dev, a.logger)
	if req.Up {
		mon.ScheduleUp(delay)
	} else {
		mon.ScheduleDown(delay)
	}

	writeJSON(w, http.StatusAccepted, scheduleLinkResponse{
		Device:     dev.Name(),
		Up:         req.Up,
		DelayNanos: req.DelayNanos,
	})
}

// computeRoutesResponse reports the outcome of an on-demand
// InitializeRoutes() run.
type computeRoutesResponse struct {
	LSAsInstalled int `json:"lsas_installed"`
}

// handleComputeRoutes triggers InitializeRoutes(): rebuild the LSDB
// from every registered router's current link state, then run SPF for
// every router so its forwarding-table size is current.
// Safe to call repeatedly -- each call clears and recomputes from
// scratch, so a topology change (e.g. a prior handleSetLink call) is
// picked up on the next call.
func (a *API) handleComputeRoutes(w http.ResponseWriter, r *http.Request) {
	installed := a.registry.InitializeRoutes(a.lsdb)

	if a.metrics != nil {
		for _, node := range a.registry.Nodes() {
			if node.Router == nil {
				continue
			}

			tree := routing.RunSPF(a.lsdb, node.Router.ID())
			table := routing.BuildForwardingTable(a.lsdb, node.Router.ID(), tree)

			a.metrics.IncSPFRuns(node.ID)
			a.metrics.SetRoutesInstalled(node.ID, len(table))
		}
	}

	writeJSON(w, http.StatusOK, computeRoutesResponse{LSAsInstalled: installed})
}

func (a *API) lookupNode(id string) (*topology.Node, error) {
	node, ok := a.registry.Lookup(id)
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// -----------------------------------------------------------------------
// JSON helpers
// -----------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("control: failed to encode JSON response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
