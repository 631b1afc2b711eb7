package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMatchesDirPattern(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		{".tend", true},
		{".tend/", true},
		{".tend/*", true},
		{".tend/**", true},
		{".tend/**/*", true},
		{"/.tend", true},
		{"/.tend/", true},
		{"  .tend/  ", true},

		{"", false},
		{"#.tend", false},
		{".tend2", false},
		{".tendx", false},
		{"tend/", false},
		{".cache/", false},
		{"node_modules/", false},
		{".tend-backup", false},
		{"*.tend", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := matchesDirPattern(tt.line, ".tend")
			if got != tt.matches {
				t.Errorf("matchesDirPattern(%q) = %v, want %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestIsIgnored(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{"empty file", "", false},
		{"has .tend", "node_modules/\n.tend\n*.log\n", true},
		{"has .tend/", "node_modules/\n.tend/\n*.log\n", true},
		{"has /.tend/*", "/.tend/*\n", true},
		{"commented out", "# .tend/\n", false},
		{"different pattern", ".cache/\nnode_modules/\n", false},
		{"similar but not matching", ".tend2/\n.tendx\ntend/\n", false},
		{"negated afterwards", ".tend/\n!.tend/\n", false},
		{"ignored after negation", "!.tend/\n.tend/\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitignorePath := filepath.Join(t.TempDir(), ".gitignore")
			if err := os.WriteFile(gitignorePath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			got, err := isIgnored(gitignorePath, ".tend")
			if err != nil {
				t.Fatalf("isIgnored() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("isIgnored() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsIgnored_FileNotExists(t *testing.T) {
	_, err := isIgnored(filepath.Join(t.TempDir(), ".gitignore"), ".tend")
	if !os.IsNotExist(err) {
		t.Errorf("expected IsNotExist error, got %v", err)
	}
}

func TestAppendToGitignore(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"new file", "", gitignoreComment + "\n.tend/\n"},
		{"existing file with newline", "node_modules/\n", "node_modules/\n\n" + gitignoreComment + "\n.tend/\n"},
		{"existing file without trailing newline", "node_modules/", "node_modules/\n\n" + gitignoreComment + "\n.tend/\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitignorePath := filepath.Join(t.TempDir(), ".gitignore")
			if tt.existing != "" {
				if err := os.WriteFile(gitignorePath, []byte(tt.existing), 0o644); err != nil {
					t.Fatalf("failed to write existing file: %v", err)
				}
			}

			if err := appendToGitignore(gitignorePath, ".tend/"); err != nil {
				t.Fatalf("appendToGitignore() error = %v", err)
			}

			content, err := os.ReadFile(gitignorePath)
			if err != nil {
				t.Fatalf("failed to read result: %v", err)
			}
			if string(content) != tt.want {
				t.Errorf("got:\n%q\nwant:\n%q", content, tt.want)
			}
		})
	}
}

func TestEnsureTendInGitignore(t *testing.T) {
	t.Run("creates gitignore if not exists", func(t *testing.T) {
		tmpDir := t.TempDir()

		if err := EnsureTendInGitignore(tmpDir); err != nil {
			t.Fatalf("EnsureTendInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}
		if !strings.Contains(string(content), ".tend/") {
			t.Errorf("expected .tend/ in .gitignore, got:\n%s", content)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		tmpDir := t.TempDir()
		for i := 0; i < 3; i++ {
			if err := EnsureTendInGitignore(tmpDir); err != nil {
				t.Fatalf("EnsureTendInGitignore() error = %v", err)
			}
		}

		content, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
		if err != nil {
			t.Fatal(err)
		}
		if count := strings.Count(string(content), ".tend/"); count != 1 {
			t.Errorf("expected exactly 1 occurrence of .tend/, got %d:\n%s", count, content)
		}
	})

	t.Run("recognizes existing pattern", func(t *testing.T) {
		tmpDir := t.TempDir()
		gitignorePath := filepath.Join(tmpDir, ".gitignore")
		if err := os.WriteFile(gitignorePath, []byte(".tend\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := EnsureTendInGitignore(tmpDir); err != nil {
			t.Fatalf("EnsureTendInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(gitignorePath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != ".tend\n" {
			t.Errorf("should not add when .tend already present, got:\n%s", content)
		}
	})

	t.Run("re-adds after negation", func(t *testing.T) {
		tmpDir := t.TempDir()
		gitignorePath := filepath.Join(tmpDir, ".gitignore")
		if err := os.WriteFile(gitignorePath, []byte(".tend/\n!.tend/\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := EnsureTendInGitignore(tmpDir); err != nil {
			t.Fatal(err)
		}
		content, _ := os.ReadFile(gitignorePath)
		if !strings.HasSuffix(string(content), gitignoreComment+"\n.tend/\n") {
			t.Errorf("expected pattern appended, got:\n%s", content)
		}
	})
}

func TestEnsureInGitignore_UsesCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if err := EnsureInGitignore("", "build"); err != nil {
		t.Fatalf("EnsureInGitignore() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}
	if !strings.Contains(string(content), "build/") {
		t.Errorf("expected build/ in .gitignore, got:\n%s", content)
	}
}
