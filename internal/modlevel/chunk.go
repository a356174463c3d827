package modlevel

import "fmt"

// ChunkID identifies one encodeable chunk: a level plus the first (lowest)
// frame index of the chunk's level-specific sequence. IDs are created when a
// chunk becomes ready and never mutated.
type ChunkID struct {
	Level Level
	Start int64
}

func (id ChunkID) String() string {
	return fmt.Sprintf("%s/chunk_%04d", id.Level, id.Start)
}

// StorageKey renders the canonical artifact address for a chunk. The format
// is bit-exact with existing stored data:
//
//	{tenant}/{video}/{chunkType}_v{version}/modulo_{level}/chunk_{start:04d}.{ext}
//
// e.g. acme/vid42/preview_v1/modulo_4/chunk_0016.webm.
func StorageKey(tenant, video, chunkType string, version int, id ChunkID, ext string) string {
	return fmt.Sprintf("%s/%s/%s_v%d/modulo_%d/chunk_%04d.%s",
		tenant, video, chunkType, version, int(id.Level), id.Start, ext)
}
