// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

// DefaultChunkSize is used by ChunkArray when size is not positive.
const DefaultChunkSize = 100

// ChunkArray splits items into consecutive chunks of at most size elements,
// preserving order. Only the last chunk may be shorter. An empty input yields
// an empty, non-nil result and never a single empty chunk.
//
// Chunks share the backing array of items.
func ChunkArray[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
