package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "results"), 0700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		path        string
		allowed     []string
		wantErr     bool
		errContains string
	}{
		{"file in root", filepath.Join(root, "sigmoid_plot.eps"), []string{root}, false, ""},
		{"file in existing subdir", filepath.Join(root, "results", "leaky_if.eps"), []string{root}, false, ""},
		{"file in missing subdir", filepath.Join(root, "out", "deep", "epsc_plot.svg"), []string{root}, false, ""},
		{"root itself", root, []string{root}, false, ""},
		{"dot-dot escape", filepath.Join(root, "..", "etc", "passwd"), []string{root}, true, "outside allowed"},
		{"other directory", filepath.Join(elsewhere, "x.eps"), []string{root}, true, "outside allowed"},
		{"second allowed dir", filepath.Join(elsewhere, "x.eps"), []string{root, elsewhere}, false, ""},
		{"null byte", filepath.Join(root, "a\x00b.eps"), []string{root}, true, "null byte"},
		{"empty", "", []string{root}, true, "empty"},
		{"nothing allowed", filepath.Join(root, "x.eps"), nil, true, "no allowed"},
		{"sibling prefix", root + "-evil" + string(os.PathSeparator) + "x.eps", []string{root}, true, "outside allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidatePath() error = %v, want %q", err, tt.errContains)
			}
		})
	}
}

func TestValidatePathSentinel(t *testing.T) {
	err := ValidatePath("/definitely/not/here.eps", []string{t.TempDir()})
	if !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("error = %v, want ErrOutsideRoot", err)
	}
}

func TestValidatePathSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "results")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatal(err)
	}
	if err := ValidatePath(filepath.Join(link, "leaky_if.eps"), []string{root}); err == nil {
		t.Error("symlink pointing outside the root was accepted")
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"voltage.csv", "voltage.csv"},
		{"/voltage.csv", "voltage.csv"},
		{"/home/ana/lab/data/voltage.csv", ".../data/voltage.csv"},
		{"data/../data/voltage.csv", ".../data/voltage.csv"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.in); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	root := filepath.Join(string(os.PathSeparator), "proj")
	if got, want := Resolve(root, "data/voltage.csv"), filepath.Join(root, "data", "voltage.csv"); got != want {
		t.Errorf("Resolve(relative) = %q, want %q", got, want)
	}
	abs := filepath.Join(string(os.PathSeparator), "tmp", "x.csv")
	if got := Resolve(root, abs); got != abs {
		t.Errorf("Resolve(absolute) = %q, want %q", got, abs)
	}
}

func TestProjectDirs(t *testing.T) {
	root := filepath.Join(string(os.PathSeparator), "proj")
	out := filepath.Join(string(os.PathSeparator), "figs")
	tests := []struct {
		name      string
		outputDir string
		want      []string
	}{
		{"no output dir", "", []string{root}},
		{"relative", "results", []string{root, filepath.Join(root, "results")}},
		{"absolute", out, []string{root, out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectDirs(root, tt.outputDir)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ProjectDirs() = %v, want %v", got, tt.want)
			}
		})
	}
}
