// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gamevault/gamevault/internal/config"
	gvgrpc "github.com/gamevault/gamevault/internal/grpc"
)

const defaultStatusTimeout = 2 * time.Second

// ComponentStatus holds the probe result for one endpoint of a running
// serve process.
type ComponentStatus struct {
	Component string `json:"component"`
	Address   string `json:"address"`
	Healthy   bool   `json:"healthy"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running GameVault server",
		Long: `Query the gRPC health service and the HTTP readiness probe of a
running serve process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	def := config.Default()
	cmd.Flags().String("grpc-addr", def.Server.GRPCAddr, "gRPC health address to query")
	cmd.Flags().String("metrics-addr", def.Server.MetricsAddr, "metrics/probe address to query")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultStatusTimeout, "timeout for each probe")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	statuses := []ComponentStatus{
		queryGRPCHealth(ctx, appCfg.Server.GRPCAddr, cfg.timeout),
		queryReadiness(ctx, appCfg.Server.MetricsAddr, cfg.timeout),
	}

	if cfg.jsonOutput {
		output, err := formatStatusJSON(statuses)
		if err != nil {
			return err
		}
		cmd.Println(output)
		return nil
	}
	cmd.Print(formatStatusTable(statuses))
	return nil
}

// queryGRPCHealth asks the gRPC health service for the API status.
func queryGRPCHealth(ctx context.Context, addr string, timeout time.Duration) ComponentStatus {
	status := ComponentStatus{Component: "grpc-health", Address: addr}
	if addr == "" {
		status.Error = "address not configured"
		return status
	}

	client, err := gvgrpc.NewClient(gvgrpc.ClientConfig{Address: addr})
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	serving, err := client.Check(ctx, gvgrpc.ServiceName)
	if err != nil {
		status.Error = fmt.Sprintf("failed to query health: %v", err)
		return status
	}
	status.Status = serving.String()
	status.Healthy = serving == healthpb.HealthCheckResponse_SERVING
	return status
}

// queryReadiness calls the readiness probe of the observability server.
func queryReadiness(ctx context.Context, addr string, timeout time.Duration) ComponentStatus {
	status := ComponentStatus{Component: "readiness", Address: addr}
	if addr == "" {
		status.Error = "address not configured"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz/readiness", http.NoBody)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.Healthy = resp.StatusCode == http.StatusOK
	if status.Healthy {
		status.Status = "ready"
	} else {
		status.Status = "not ready"
	}
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(statuses []ComponentStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "COMPONENT\tADDRESS\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "---------\t-------\t------\t------")
	for _, s := range statuses {
		state := "down"
		if s.Healthy {
			state = "up"
		}
		detail := s.Status
		if s.Error != "" {
			detail = s.Error
		}
		if detail == "" {
			detail = "-"
		}
		address := s.Address
		if address == "" {
			address = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Component, address, state, detail)
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(statuses []ComponentStatus) (string, error) {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", oops.With("operation", "marshal status").Wrap(err)
	}
	return string(data), nil
}
