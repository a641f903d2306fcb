// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package converter

import "os/exec"

// killProcessGroup keeps the exec.CommandContext default of killing the
// direct child only.
func killProcessGroup(cmd *exec.Cmd) {}
