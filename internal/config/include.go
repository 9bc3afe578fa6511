package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brettski74/milton/internal/milerr"
)

// envVar matches $VAR and ${VAR} references for expansion against the
// process environment.
var envVar = regexp.MustCompile(`\$\{?[A-Za-z_][A-Za-z0-9_]*\}?`)

const (
	includeTag         = "!include"
	includeOptionalTag = "!include?"
)

// Preprocess reads path, expands its `!include`/`!include?` tags and
// `$VAR`/`${VAR}` environment references, and re-serializes the resulting
// document tree into a single YAML document viper can parse directly.
// Includes are resolved relative to searchPath, the same way the
// top-level document is.
func Preprocess(path string, searchPath []string) (string, error) {
	root, err := preprocess(path, searchPath, nil)
	if err != nil {
		return "", err
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return "", milerr.Wrap(milerr.ConfigParse, path, err)
	}
	return string(out), nil
}

// preprocess parses path as a YAML node tree, expands environment
// references in the raw text, and recursively resolves every
// !include/!include? tagged node, returning the merged root node.
func preprocess(path string, searchPath []string, stack []string) (*yaml.Node, error) {
	for _, visited := range stack {
		if visited == path {
			return nil, milerr.New(milerr.CircularInclude, strings.Join(append(stack, path), " -> "))
		}
	}
	stack = append(stack, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, milerr.Wrap(milerr.ConfigNotFound, path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(expandEnv(string(raw))), &doc); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, path, err)
	}

	if len(doc.Content) == 0 {
		return emptyMapping(), nil
	}

	resolved, err := resolveNode(doc.Content[0], path, searchPath, stack)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return emptyMapping(), nil
	}
	return resolved, nil
}

// resolveNode walks n depth-first, substituting the parsed root of any
// included file for the node that named it. It returns (nil, nil) when n
// is an `!include?` node whose target is absent, telling the caller to
// drop n (and, for a mapping value, its key) from the tree entirely.
func resolveNode(n *yaml.Node, includingFile string, searchPath []string, stack []string) (*yaml.Node, error) {
	if n.Tag == includeTag || n.Tag == includeOptionalTag {
		optional := n.Tag == includeOptionalTag

		resolved, err := Resolve(strings.TrimSpace(n.Value), includeSearchPath(includingFile, searchPath))
		if err != nil {
			if optional {
				return nil, nil
			}
			return nil, err
		}

		return preprocess(resolved, searchPath, stack)
	}

	switch n.Kind {
	case yaml.MappingNode:
		content := make([]*yaml.Node, 0, len(n.Content))
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			resolvedValue, err := resolveNode(value, includingFile, searchPath, stack)
			if err != nil {
				return nil, err
			}
			if resolvedValue == nil {
				continue
			}
			content = append(content, key, resolvedValue)
		}
		n.Content = content
	case yaml.SequenceNode:
		content := make([]*yaml.Node, 0, len(n.Content))
		for _, item := range n.Content {
			resolvedItem, err := resolveNode(item, includingFile, searchPath, stack)
			if err != nil {
				return nil, err
			}
			if resolvedItem == nil {
				continue
			}
			content = append(content, resolvedItem)
		}
		n.Content = content
	}

	return n, nil
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// includeSearchPath prepends the including file's own directory, so
// includes can be written relative to the file that references them as
// well as the shared search path.
func includeSearchPath(includingFile string, searchPath []string) []string {
	return append([]string{filepath.Dir(includingFile)}, searchPath...)
}

// indentBlock indents every non-blank line of block by indent; used by
// LoadProfile to nest a bare stage-list document under a synthetic
// `profile:` key before handing it to viper.
func indentBlock(block, indent string) string {
	if indent == "" {
		return block
	}
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n") + "\n"
}

// expandEnv replaces $VAR/${VAR} references with their environment
// values, leaving unset variables as an empty string, matching the
// shell's default (unset) expansion rather than POSIX's strict mode.
func expandEnv(doc string) string {
	return envVar.ReplaceAllStringFunc(doc, func(ref string) string {
		name := strings.Trim(ref, "${}")
		return os.Getenv(name)
	})
}
