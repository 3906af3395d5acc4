// Package commands implements the netsimctl CLI commands.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient talks to the netsimd control API, a plain *http.Client
	// since the control API is hand-rolled JSON over net/http rather
	// than protobuf.
	httpClient = &http.Client{Timeout: 10 * time.Second}

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the netsimd control API address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for netsimctl.
var rootCmd = &cobra.Command{
	Use:   "netsimctl",
	Short: "CLI client for the netsimd simulator daemon",
	Long:  "netsimctl queries and drives a netsimd daemon's control API: topology, routes, queues, and route recomputation.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"netsimd control API address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(topologyCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(queueCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// apiGet issues a GET request against the control API at path and
// decodes the JSON response into v.
func apiGet(path string, v any) error {
	resp, err := httpClient.Get("http://" + serverAddr + path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeAPIResponse(resp, v)
}

// apiPost issues a POST request with an optional JSON body against
// the control API at path and decodes the JSON response into v.
func apiPost(path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := httpClient.Post("http://"+serverAddr+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeAPIResponse(resp, v)
}

func decodeAPIResponse(resp *http.Response, v any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("control api: %s", apiErr.Error)
		}
		return fmt.Errorf("control api: unexpected status %s", resp.Status)
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
