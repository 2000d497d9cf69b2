package spec

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loaded pairs a parsed spec with the file it came from.
type Loaded struct {
	Path string
	Spec EvalSpec
}

// Parse parses YAML data into an EvalSpec and validates it.
func Parse(data []byte) (EvalSpec, error) {
	var s EvalSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return EvalSpec{}, fmt.Errorf("parse spec: %w", err)
	}
	if err := Validate(s); err != nil {
		return EvalSpec{}, err
	}
	return s, nil
}

// LoadFile reads and parses a single spec file.
func LoadFile(path string) (EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EvalSpec{}, fmt.Errorf("read spec %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return EvalSpec{}, fmt.Errorf("spec %s: %w", path, err)
	}
	return s, nil
}

// Find walks root for files matching the glob pattern and parses each
// one as an EvalSpec. The pattern is slash-separated relative to root
// and supports "**" for matching across directory levels. Matching is
// case-insensitive. Results are in walk order (lexical within each
// directory), so callers see a stable ordering.
func Find(glob string, root string) ([]Loaded, error) {
	pattern := normalizeGlob(glob)
	var out []Loaded
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchPattern(pattern, strings.ToLower(rel)) {
			return nil
		}
		s, err := LoadFile(p)
		if err != nil {
			return err
		}
		out = append(out, Loaded{Path: p, Spec: s})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeGlob strips a leading "./" and converts backslashes, so
// patterns authored on any platform behave the same.
func normalizeGlob(glob string) string {
	s := strings.ReplaceAll(glob, "\\", "/")
	for strings.HasPrefix(s, "./") {
		s = s[2:]
	}
	if s == "" {
		return glob
	}
	return strings.ToLower(s)
}

// matchPattern matches a slash-separated relative path against a glob
// pattern. "*" and "?" follow path.Match semantics (not crossing "/"),
// while "**" matches zero or more whole segments. Malformed patterns
// never match.
func matchPattern(pattern, rel string) bool {
	if pattern == "**" {
		return true
	}

	if !strings.Contains(pattern, "**") {
		matched, err := path.Match(pattern, rel)
		if err != nil {
			return false
		}
		return matched
	}

	// Suffix form: "evals/**" matches everything under the prefix.
	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		return matchGlob(prefix, rel) || hasMatchingPrefix(prefix, rel)
	}

	// Prefix form: "**/name.yaml" matches the suffix at any depth.
	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if matchGlob(suffix, rel) {
			return true
		}
		segments := strings.Split(rel, "/")
		for i := 1; i < len(segments); i++ {
			if matchGlob(suffix, strings.Join(segments[i:], "/")) {
				return true
			}
		}
		return false
	}

	// Interior form: "evals/**/x.yaml" — split on the first "/**/" and
	// match both halves, with "**" consuming zero or more segments.
	idx := strings.Index(pattern, "/**/")
	if idx < 0 {
		return false
	}
	prefix := pattern[:idx]
	suffix := pattern[idx+4:]
	if matchGlob(prefix+"/"+suffix, rel) {
		return true
	}
	segments := strings.Split(rel, "/")
	prefixDepth := strings.Count(prefix, "/") + 1
	suffixDepth := strings.Count(suffix, "/") + 1
	if len(segments) <= prefixDepth+suffixDepth {
		return false
	}
	head := strings.Join(segments[:prefixDepth], "/")
	tail := strings.Join(segments[len(segments)-suffixDepth:], "/")
	return matchGlob(prefix, head) && matchGlob(suffix, tail)
}

func matchGlob(pattern, s string) bool {
	matched, err := path.Match(pattern, s)
	return err == nil && matched
}

// hasMatchingPrefix reports whether some leading segment sequence of
// rel matches the pattern, with at least one segment remaining.
func hasMatchingPrefix(pattern, rel string) bool {
	segments := strings.Split(rel, "/")
	for i := 1; i < len(segments); i++ {
		if matchGlob(pattern, strings.Join(segments[:i], "/")) {
			return true
		}
	}
	return false
}
