// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/pdiddy/ditto/internal/converter"
)

const (
	exitFailure      = 1
	exitBatchFailure = 2
)

// exitCodes gives each conversion failure kind its own process exit code.
var exitCodes = map[converter.Kind]int{
	converter.KindBinaryNotFound:     3,
	converter.KindInputNotFound:      4,
	converter.KindInputInvalid:       5,
	converter.KindTimeout:            6,
	converter.KindExternalTool:       7,
	converter.KindOutputMissing:      8,
	converter.KindOutputRenameFailed: 9,
	converter.KindOutputCorrupt:      10,
	converter.KindCancelled:          11,
}

// batchError reports that a batch finished with failures.
type batchError struct {
	failed int
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d document(s) failed conversion", e.failed)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var be *batchError
	if errors.As(err, &be) {
		return exitBatchFailure
	}
	if code, ok := exitCodes[converter.KindFromError(err)]; ok {
		return code
	}
	return exitFailure
}
