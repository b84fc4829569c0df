package toolserver

import (
	"bytes"
	"path/filepath"
)

func joinRoot(root, rel string) string {
	if root == "" {
		return rel
	}
	return filepath.Join(root, rel)
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimRight(content, "\n"), []byte("\n"))
}
