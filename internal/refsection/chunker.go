package refsection

import "strings"

const (
	// DefaultMaxChunkSize is the maximum chunk length sent to the
	// extraction service in one call.
	DefaultMaxChunkSize = 24000

	// chunkOverlapLines is the number of trailing lines repeated at the
	// start of the next chunk so a citation entry spanning a chunk
	// boundary is seen whole at least once.
	chunkOverlapLines = 5
)

// SplitChunks splits a reference section into chunks of at most maxSize
// bytes. A section that already fits is returned as a single chunk. Splits
// happen on line boundaries, and each chunk after the first is seeded with
// the last lines of its predecessor.
func SplitChunks(section string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if len(section) <= maxSize {
		return []string{section}
	}

	lines := strings.Split(section, "\n")

	var chunks []string
	var current []string
	currentLen := 0

	for _, line := range lines {
		// +1 for the joining newline
		added := len(line) + 1
		if currentLen+added > maxSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))

			overlap := chunkOverlapLines
			if overlap > len(current) {
				overlap = len(current)
			}
			current = append([]string(nil), current[len(current)-overlap:]...)
			currentLen = 0
			for _, l := range current {
				currentLen += len(l) + 1
			}
		}
		current = append(current, line)
		currentLen += added
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	return chunks
}

// OverlapLines returns the number of lines shared between consecutive
// chunks produced by SplitChunks.
func OverlapLines() int {
	return chunkOverlapLines
}
