// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const (
	inputExt  = ".docx"
	outputExt = ".pdf"
)

// validateInput checks that path names a regular .docx file. With verify set
// it also opens the file as a DOCX container.
func validateInput(path string, verify bool) error {
	if strings.TrimSpace(path) == "" {
		return newError(KindInputInvalid, "", "input path is empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindInputNotFound, path, "", nil)
		}
		return newError(KindInputInvalid, path, "input file is not accessible", err)
	}
	if !info.Mode().IsRegular() {
		return newError(KindInputInvalid, path, "input path is not a file", nil)
	}
	if !strings.EqualFold(filepath.Ext(path), inputExt) {
		return newError(KindInputInvalid, path,
			fmt.Sprintf("input must have a %s extension", inputExt), nil)
	}

	if verify {
		doc, err := docx.ReadDocxFile(path)
		if err != nil {
			return newError(KindInputInvalid, path, "input is not a readable DOCX document", err)
		}
		if err := doc.Close(); err != nil {
			return newError(KindInputInvalid, path, "closing DOCX document", err)
		}
	}
	return nil
}

// prepareOutput checks the requested output path, creates its parent
// directory and returns the absolute path.
func prepareOutput(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", newError(KindInputInvalid, "", "output path is empty", nil)
	}
	if !strings.EqualFold(filepath.Ext(path), outputExt) {
		return "", newError(KindInputInvalid, path,
			fmt.Sprintf("output must have a %s extension", outputExt), nil)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newError(KindInputInvalid, path, "resolving output path", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", newError(KindInputInvalid, path, "output path is a directory", nil)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", newError(KindInputInvalid, path, "creating output directory", err)
	}
	return abs, nil
}
