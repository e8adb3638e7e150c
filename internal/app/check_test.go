package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jobrunner/geocat/internal/config"
)

func TestCheck(t *testing.T) {
	cfg := config.CatalogConfig{ExtendedValidation: true, GroupPolicy: "never"}

	tests := []struct {
		name           string
		files          map[string]string
		wantUnresolved int
		wantInvalid    int
		wantOutput     string
	}{
		{
			name:       "clean catalog",
			files:      map[string]string{"catalog.yaml": catalogYAML},
			wantOutput: "ok",
		},
		{
			name:           "dangling reference",
			files:          map[string]string{"catalog.yaml": "layers:\n  - id: orphan\n    resource: ft-missing\n"},
			wantUnresolved: 1,
			wantOutput:     "unresolved layer orphan",
		},
		{
			name: "invalid namespace",
			files: map[string]string{
				"catalog.yaml": catalogYAML,
				"bad.yaml":     "namespaces:\n  - id: ns-bad\n    prefix: bad\n    uri: not a uri\n",
			},
			wantInvalid: 1,
			wantOutput:  "invalid namespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			report, err := Check(context.Background(), dir, "", cfg, testLogger())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if len(report.Unresolved) != tt.wantUnresolved {
				t.Errorf("unresolved = %v, want %d", report.Unresolved, tt.wantUnresolved)
			}
			if len(report.Invalid) != tt.wantInvalid {
				t.Errorf("invalid = %v, want %d", report.Invalid, tt.wantInvalid)
			}

			var buf bytes.Buffer
			report.Write(&buf)
			if !strings.Contains(buf.String(), tt.wantOutput) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.wantOutput)
			}
		})
	}
}

func TestCheckMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog.yaml", "workspaces: [\n")

	cfg := config.CatalogConfig{GroupPolicy: "never"}
	if _, err := Check(context.Background(), dir, "", cfg, testLogger()); err == nil {
		t.Fatal("expected error for malformed document")
	}
}
