package errors

import (
	"strings"
	"unicode"
)

// maxIdentityLength bounds component identities read from untrusted files.
const maxIdentityLength = 256

// ValidateIdentity checks a component identity before it enters a registry.
//
// Identities are opaque, but discovery reads them from files that may be
// third-party or generated, so obviously broken values are rejected:
//   - No empty identities
//   - Maximum length of 256 characters
//   - No control characters or whitespace
func ValidateIdentity(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDeclaration, "identity cannot be empty")
	}
	if len(id) > maxIdentityLength {
		return New(ErrCodeInvalidDeclaration, "identity too long (max %d characters)", maxIdentityLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidDeclaration, "identity %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateConventionPart validates a discovery convention component
// (subdirectory name or file suffix). It must be a plain name that cannot
// escape the scanned root or act as a glob.
func ValidateConventionPart(part string) error {
	if part == "" {
		return New(ErrCodeInvalidConfig, "convention part cannot be empty")
	}
	if strings.ContainsAny(part, `/\`) {
		return New(ErrCodeInvalidConfig, "convention part %q cannot contain path separators", part)
	}
	if strings.Contains(part, "..") {
		return New(ErrCodeInvalidConfig, "convention part %q cannot contain path traversal sequences", part)
	}
	if strings.ContainsAny(part, "*?[]") {
		return New(ErrCodeInvalidConfig, "convention part %q cannot contain glob characters", part)
	}
	return nil
}

// ValidatePath validates a root path handed to discovery.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
