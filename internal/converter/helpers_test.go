// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const fakePDF = "%PDF-1.4\n1 0 obj << >> endobj\ntrailer << >>\n%%EOF\n"

// fakeRunner implements Runner for testing. LookPath succeeds for names in
// paths; Run delegates to runFunc, or writes a PDF like soffice would.
type fakeRunner struct {
	paths   map[string]string
	runFunc func(ctx context.Context, args []string) (Exit, error)

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu       sync.Mutex
	lastBin  string
	lastArgs []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if p, ok := f.paths[file]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found: " + file)
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args []string, grace time.Duration) (Exit, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.lastBin = bin
	f.lastArgs = append([]string(nil), args...)
	f.mu.Unlock()

	if f.runFunc != nil {
		return f.runFunc(ctx, args)
	}
	return writeProduced(args, fakePDF)
}

func (f *fakeRunner) args() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastArgs
}

// newFakeRunner returns a runner with soffice on PATH.
func newFakeRunner() *fakeRunner {
	return &fakeRunner{paths: map[string]string{"soffice": "/usr/bin/soffice"}}
}

// outdirArg returns the value following --outdir.
func outdirArg(args []string) string {
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// writeProduced writes content where soffice would put the PDF for args.
func writeProduced(args []string, content string) (Exit, error) {
	input := args[len(args)-1]
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	path := filepath.Join(outdirArg(args), stem+".pdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Exit{Code: 1, Stderr: err.Error()}, nil
	}
	return Exit{Stdout: "convert " + input + " -> " + path + " using filter : writer_pdf_Export"}, nil
}

// blockUntilDone simulates a hung converter.
func blockUntilDone(ctx context.Context, _ []string) (Exit, error) {
	<-ctx.Done()
	return Exit{Code: -1}, ctx.Err()
}

// writeDocx writes a minimal but structurally valid DOCX container.
func writeDocx(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>Quarterly report</w:t></w:r></w:p></w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// setupDocx creates dir/name as a DOCX and returns its path.
func setupDocx(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeDocx(t, path)
	return path
}

// stagingDirs lists leftover staging directories in dir.
func stagingDirs(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, stagingPattern))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
