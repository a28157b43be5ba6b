package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resumePath, []byte("  resume from file \n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	emptyPath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(emptyPath, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "inline text",
			src:  Source{Name: "resume", Text: " inline text "},
			want: "inline text",
		},
		{
			name: "file takes precedence over text",
			src:  Source{Name: "resume", Text: "inline", File: resumePath},
			want: "resume from file",
		},
		{
			name:    "empty file",
			src:     Source{Name: "resume", File: emptyPath},
			wantErr: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{Name: "resume", File: filepath.Join(dir, "missing.txt")},
			wantErr: "reading resume",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "criteria"},
			wantErr: "criteria is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
