package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// deviceView mirrors internal/control's deviceView JSON shape.
type deviceView struct {
	Name     string `json:"name"`
	MacAddr  string `json:"mac_addr"`
	State    string `json:"state"`
	LinkUp   bool   `json:"link_up"`
	QueueLen int    `json:"queue_len"`
}

// nodeView mirrors internal/control's nodeView JSON shape.
type nodeView struct {
	ID       string       `json:"id"`
	RouterID string       `json:"router_id,omitempty"`
	Devices  []deviceView `json:"devices"`
}

// routeEntryView mirrors internal/control's routeEntryView JSON shape.
type routeEntryView struct {
	Destination string   `json:"destination"`
	Cost        uint32   `json:"cost"`
	NextHops    []string `json:"next_hops"`
}

// formatNodes renders a slice of nodes in the requested format.
func formatNodes(nodes []nodeView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(nodes)
	case formatTable:
		return formatNodesTable(nodes)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatRoutes renders a slice of forwarding table entries in the
// requested format.
func formatRoutes(routes []routeEntryView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(routes)
	case formatTable:
		return formatRoutesTable(routes)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatDevice renders a single device view in the requested format.
func formatDevice(dev deviceView, format string) (string, error) {
	switch format {
	case formatJSON:
		return marshalIndent(dev)
	case formatTable:
		return formatDeviceTable(dev)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data), nil
}

func formatNodesTable(nodes []nodeView) (string, error) {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tROUTER-ID\tDEVICES")

	for _, n := range nodes {
		names := make([]string, 0, len(n.Devices))
		for _, dev := range n.Devices {
			names = append(names, dev.Name)
		}

		routerID := n.RouterID
		if routerID == "" {
			routerID = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, routerID, strings.Join(names, ","))
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush tabwriter: %w", err)
	}

	return buf.String(), nil
}

func formatRoutesTable(routes []routeEntryView) (string, error) {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DESTINATION\tCOST\tNEXT-HOPS")

	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.Destination, r.Cost, strings.Join(r.NextHops, ","))
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush tabwriter: %w", err)
	}

	return buf.String(), nil
}

func formatDeviceTable(dev deviceView) (string, error) {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Name:\t%s\n", dev.Name)
	fmt.Fprintf(w, "MAC Address:\t%s\n", dev.MacAddr)
	fmt.Fprintf(w, "State:\t%s\n", dev.State)
	fmt.Fprintf(w, "Link Up:\t%t\n", dev.LinkUp)
	fmt.Fprintf(w, "Queue Length:\t%d\n", dev.QueueLen)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush tabwriter: %w", err)
	}

	return buf.String(), nil
}
