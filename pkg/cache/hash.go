package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// fileStamp identifies one file version without reading its content.
type fileStamp struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mtime"`
}

// Signature derives a declaration-set signature from a settings value and
// the files that feed discovery. It changes whenever settings change or a
// file is added, removed, resized or touched. Files that cannot be stat'ed
// contribute only their path.
func Signature(settings any, files []string) string {
	stamps := make([]fileStamp, 0, len(files))
	for _, f := range files {
		s := fileStamp{Path: f}
		if info, err := os.Stat(f); err == nil {
			s.Size = info.Size()
			s.ModTime = info.ModTime().UnixNano()
		}
		stamps = append(stamps, s)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Path < stamps[j].Path })

	data, _ := json.Marshal(struct {
		Settings any         `json:"settings"`
		Files    []fileStamp `json:"files"`
	}{settings, stamps})
	return Hash(data)
}
