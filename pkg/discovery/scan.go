package discovery

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

// scanLines bounds how far into a file the identity scan reads. Identity
// tokens are expected in the header, before any tables or blocks.
const scanLines = 40

// Separator joins namespace and name into an identity.
const Separator = "."

var (
	// namespace = "x", namespace: x, namespace x
	namespaceRe = regexp.MustCompile(`^\s*namespace\s*[=:]?\s*["']?([A-Za-z0-9_.\-]+)["']?\s*(?:#.*)?$`)
	nameRe      = regexp.MustCompile(`^\s*name\s*[=:]?\s*["']?([A-Za-z0-9_\-]+)["']?\s*(?:#.*)?$`)
)

// ScanIdentity reads the leading lines of a declaration file and returns the
// fully-qualified identity namespace.name, where name defaults to the file
// stem. It returns "" when no namespace token is found. The scan is a
// best-effort text match, not a parser; it never fails.
func ScanIdentity(path string, data []byte) string {
	var namespace, name string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for i := 0; i < scanLines && sc.Scan(); i++ {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			break // first TOML table header ends the preamble
		}
		if namespace == "" {
			if m := namespaceRe.FindStringSubmatch(line); m != nil {
				namespace = strings.Trim(m[1], Separator)
				continue
			}
		}
		if name == "" {
			if m := nameRe.FindStringSubmatch(line); m != nil {
				name = m[1]
			}
		}
	}

	if namespace == "" {
		return ""
	}
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return namespace + Separator + name
}
