// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// checkPDFHeader reports an error unless the file at path starts with %PDF-.
func checkPDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("reading PDF header: %w", err)
	}
	if !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("missing %q signature", pdfMagic)
	}
	return nil
}

// CountPages parses the PDF at path and returns its page count.
func CountPages(path string) (n int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
