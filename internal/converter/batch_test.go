// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/ditto/pkg/types"
)

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.docx", "b.docx", "c.docx"} {
		setupDocx(t, dir, name)
	}
	// Pre-create output for "b" to trigger skip.
	if err := os.WriteFile(filepath.Join(dir, "b.pdf"), []byte(fakePDF), 0o644); err != nil {
		t.Fatal(err)
	}

	// Runner that fails for "c.docx".
	rn := newFakeRunner()
	rn.runFunc = func(_ context.Context, args []string) (Exit, error) {
		if filepath.Base(args[len(args)-1]) == "c.docx" {
			return Exit{Code: 1, Stderr: "bad document"}, nil
		}
		return writeProduced(args, fakePDF)
	}
	c := newConverter(Options{}, nil, rn, nil)

	reqs := RequestsFromPaths([]string{
		filepath.Join(dir, "a.docx"),
		filepath.Join(dir, "b.docx"),
		filepath.Join(dir, "c.docx"),
	}, "")

	var log bytes.Buffer
	result := c.ConvertBatch(context.Background(), reqs, types.BatchConfig{Jobs: 2, SkipExisting: true}, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}

	wantStatus := []types.ConversionStatus{types.ConversionDone, types.ConversionSkipped, types.ConversionFailed}
	for i, want := range wantStatus {
		if got := result.Status(i); got != want {
			t.Errorf("status[%d] = %q, want %q", i, got, want)
		}
		if result.Outcomes[i].Request != reqs[i] {
			t.Errorf("outcome %d out of order", i)
		}
	}
	if KindFromError(result.Outcomes[2].Err) != KindExternalTool {
		t.Errorf("c.docx kind = %q, want %q", KindFromError(result.Outcomes[2].Err), KindExternalTool)
	}

	output := log.String()
	for _, want := range []string{"converted: a.docx", "skipped:   b.docx", "failed:    c.docx (external_tool", "Batch summary:"} {
		if !strings.Contains(output, want) {
			t.Errorf("batch output missing %q:\n%s", want, output)
		}
	}
}

func TestConvertBatch_RespectsJobLimit(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"1.docx", "2.docx", "3.docx", "4.docx", "5.docx", "6.docx"} {
		paths = append(paths, setupDocx(t, dir, name))
	}

	rn := newFakeRunner()
	rn.runFunc = func(_ context.Context, args []string) (Exit, error) {
		time.Sleep(20 * time.Millisecond)
		return writeProduced(args, fakePDF)
	}
	c := newConverter(Options{}, nil, rn, nil)

	var log bytes.Buffer
	result := c.ConvertBatch(context.Background(), RequestsFromPaths(paths, filepath.Join(dir, "out")), types.BatchConfig{Jobs: 2}, &log)

	if result.Converted != 6 {
		t.Fatalf("converted = %d, want 6\n%s", result.Converted, log.String())
	}
	if got := rn.maxSeen.Load(); got > 2 {
		t.Errorf("max concurrent conversions = %d, want <= 2", got)
	}
	for _, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), ".docx")
		if _, err := os.Stat(filepath.Join(dir, "out", base+".pdf")); err != nil {
			t.Errorf("expected output for %s: %v", base, err)
		}
	}
}

func TestConvertBatch_OutputCollisions(t *testing.T) {
	type collisionCase struct {
		name          string
		inputs        []string
		wantConverted int
		wantFailed    int
	}
	tests := []collisionCase{
		{
			name:          "same stem in two directories",
			inputs:        []string{"q1/report.docx", "q2/report.docx"},
			wantConverted: 1,
			wantFailed:    1,
		},
		{
			name:          "three way collision keeps the first",
			inputs:        []string{"q1/report.docx", "q2/report.docx", "q3/report.docx"},
			wantConverted: 1,
			wantFailed:    2,
		},
		{
			name:          "distinct stems",
			inputs:        []string{"q1/report.docx", "q2/summary.docx"},
			wantConverted: 2,
		},
	}
	if caseFolding(runtime.GOOS) {
		tests = append(tests, collisionCase{
			name:          "stems differing only in case",
			inputs:        []string{"q1/Report.docx", "q2/report.docx"},
			wantConverted: 1,
			wantFailed:    1,
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "out")
			var paths []string
			for _, in := range tt.inputs {
				if err := os.MkdirAll(filepath.Join(dir, filepath.Dir(in)), 0o755); err != nil {
					t.Fatal(err)
				}
				paths = append(paths, setupDocx(t, dir, in))
			}

			c := newConverter(Options{}, nil, newFakeRunner(), nil)
			var log bytes.Buffer
			result := c.ConvertBatch(context.Background(), RequestsFromPaths(paths, out), types.BatchConfig{Jobs: 2}, &log)

			if result.Converted != tt.wantConverted || result.Failed != tt.wantFailed {
				t.Fatalf("converted=%d failed=%d, want %d/%d\n%s",
					result.Converted, result.Failed, tt.wantConverted, tt.wantFailed, log.String())
			}

			pdfs, err := filepath.Glob(filepath.Join(out, "*.pdf"))
			if err != nil {
				t.Fatal(err)
			}
			if len(pdfs) != result.Converted {
				t.Errorf("%d PDFs on disk, want one per converted document (%d)", len(pdfs), result.Converted)
			}

			if !result.Outcomes[0].OK() {
				t.Errorf("first request should convert: %v", result.Outcomes[0].Err)
			}
			for _, o := range result.Outcomes[1:] {
				if o.Err == nil {
					continue
				}
				if KindFromError(o.Err) != KindInputInvalid {
					t.Errorf("kind = %q, want %q", KindFromError(o.Err), KindInputInvalid)
				}
				if !strings.Contains(o.Err.Error(), "output collides with "+paths[0]) {
					t.Errorf("error = %q, want it to name %s", o.Err, paths[0])
				}
			}
			if tt.wantFailed > 0 && !strings.Contains(log.String(), "failed:    ") {
				t.Errorf("batch output missing failed line:\n%s", log.String())
			}
		})
	}
}

func TestOutputKey(t *testing.T) {
	if outputKey("/out/Report.pdf", "linux") == outputKey("/out/report.pdf", "linux") {
		t.Error("linux paths differing in case should not collide")
	}
	if outputKey("/out/Report.pdf", "darwin") != outputKey("/out/report.pdf", "darwin") {
		t.Error("darwin paths differing in case should collide")
	}
	if outputKey("/out/./sub/../report.pdf", "linux") != outputKey("/out/report.pdf", "linux") {
		t.Error("equivalent paths should collide")
	}
}

func TestRequestsFromPaths(t *testing.T) {
	reqs := RequestsFromPaths([]string{"/in/report.docx", "/in/sub/Notes.DOCX"}, "")
	if reqs[0].OutputPath != filepath.Join("/in", "report.pdf") {
		t.Errorf("output = %q", reqs[0].OutputPath)
	}
	if reqs[1].OutputPath != filepath.Join("/in/sub", "Notes.pdf") {
		t.Errorf("output = %q", reqs[1].OutputPath)
	}

	reqs = RequestsFromPaths([]string{"/in/report.docx"}, "/out")
	if reqs[0].OutputPath != filepath.Join("/out", "report.pdf") {
		t.Errorf("output = %q", reqs[0].OutputPath)
	}
}

func TestFindDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.docx", "B.DOCX", "~$a.docx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.docx"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := FindDocuments(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("found %v, want a.docx and B.DOCX", paths)
	}

	if _, err := FindDocuments(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestConvertAsync(t *testing.T) {
	dir := t.TempDir()
	input := setupDocx(t, dir, "report.docx")
	c := newConverter(Options{}, nil, newFakeRunner(), nil)

	req := Request{InputPath: input, OutputPath: filepath.Join(dir, "report.pdf")}
	ch := c.ConvertAsync(context.Background(), req)

	select {
	case out, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without an outcome")
		}
		if !out.OK() {
			t.Fatalf("unexpected error: %v", out.Err)
		}
		if out.Request != req {
			t.Errorf("outcome request = %+v, want %+v", out.Request, req)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after the single outcome")
	}
}

func TestConvertAsync_Failure(t *testing.T) {
	c := newConverter(Options{}, nil, &fakeRunner{paths: map[string]string{}}, nil)
	out := <-c.ConvertAsync(context.Background(), Request{InputPath: "a.docx", OutputPath: "a.pdf"})
	if KindFromError(out.Err) != KindBinaryNotFound {
		t.Errorf("kind = %q, want %q", KindFromError(out.Err), KindBinaryNotFound)
	}
}
