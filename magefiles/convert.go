// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every .docx document in dir to PDF.
// DITTO_JOBS sets the number of parallel conversions.
func Convert(dir string) error {
	mg.Deps(Build)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	args := []string{"batch", "--skip-existing", dir}
	if jobs := os.Getenv("DITTO_JOBS"); jobs != "" {
		args = append(args, "--jobs", jobs)
	}
	return sh.RunV(binPath, args...)
}
