// Package loader holds project file helpers used by `tend init`.
// This file keeps the project task directory out of git.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/tend/pkg/config"
)

const gitignoreComment = "# tend local task database"

// EnsureTendInGitignore makes sure .tend/ is listed in projectDir's
// .gitignore. An empty projectDir means the working directory.
func EnsureTendInGitignore(projectDir string) error {
	return EnsureInGitignore(projectDir, config.ProjectDirName)
}

// EnsureInGitignore ensures the directory name is ignored by the .gitignore
// in projectDir.
//
// It is idempotent:
//   - .gitignore is created when missing
//   - "name/" is appended unless a line already covers it (name, name/,
//     name/*, name/**, with or without a leading slash)
//   - a later negation ("!name/") counts as not covered
//   - existing content is preserved
func EnsureInGitignore(projectDir, name string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	covered, err := isIgnored(gitignorePath, name)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", gitignorePath, err)
	}
	if covered {
		return nil
	}

	if err := appendToGitignore(gitignorePath, name+"/"); err != nil {
		return fmt.Errorf("updating %s: %w", gitignorePath, err)
	}
	return nil
}

// isIgnored reports whether the .gitignore at path covers name. The last
// matching line wins, so a negation after an ignore un-ignores it.
func isIgnored(path, name string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	ignored := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if negated, ok := strings.CutPrefix(line, "!"); ok {
			if matchesDirPattern(negated, name) {
				ignored = false
			}
			continue
		}
		if matchesDirPattern(line, name) {
			ignored = true
		}
	}

	return ignored, scanner.Err()
}

// matchesDirPattern checks if a gitignore line covers the directory name.
func matchesDirPattern(line, name string) bool {
	normalized := strings.TrimPrefix(strings.TrimSpace(line), "/")

	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == name+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends a pattern under a comment, creating the file if
// needed and keeping a blank line between it and existing content.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) == 0 {
		toWrite = gitignoreComment + "\n" + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n" + gitignoreComment + "\n" + pattern + "\n"
	}

	_, err = file.WriteString(toWrite)
	return err
}
