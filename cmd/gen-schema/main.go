// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Command gen-schema writes the configuration JSON Schema.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gamevault/gamevault/internal/config"
	"github.com/gamevault/gamevault/internal/xdg"
)

func main() {
	schema, err := config.GenerateSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join("schemas", "config.schema.json")
	if err := xdg.EnsureDir(filepath.Dir(outPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
