package raft

import "github.com/shrtyk/raft-params/api"

// BatchEnd returns the index of the last entry carried by the replication
// message starting at next. At most LogSyncBatchSize entries are sent and the
// result never passes last. A batch size below one is treated as one.
//
// When next > last there is nothing to send and next-1 is returned.
func BatchEnd(p *api.Parameters, next, last int64) int64 {
	if next > last {
		return next - 1
	}
	size := int64(max(1, p.LogSyncBatchSize()))
	return min(last, next+size-1)
}

// CaughtUp reports whether a follower whose next index is next has closed the
// gap to last far enough for batched log sync to stop.
func CaughtUp(p *api.Parameters, next, last int64) bool {
	gap := last - next + 1
	return gap <= 0 || gap < int64(p.LogSyncStopGap())
}

// Chunk is a byte range of a snapshot.
type Chunk struct {
	Offset int64
	Length int64
}

// SnapshotChunks splits a snapshot of size bytes into chunks of at most
// SnapshotBlockSize bytes. A non-positive block size yields a single chunk.
func SnapshotChunks(p *api.Parameters, size int64) []Chunk {
	if size <= 0 {
		return nil
	}

	block := int64(p.SnapshotBlockSize())
	if block <= 0 {
		return []Chunk{{Offset: 0, Length: size}}
	}

	chunks := make([]Chunk, 0, (size+block-1)/block)
	for off := int64(0); off < size; off += block {
		chunks = append(chunks, Chunk{Offset: off, Length: min(block, size-off)})
	}
	return chunks
}

// SnapshotDue reports whether enough entries were committed since the last
// snapshot to take a new one. It is always false when snapshots are disabled.
func SnapshotDue(p *api.Parameters, committedIdx, lastSnapshotIdx int64) bool {
	if !p.SnapshotsEnabled() {
		return false
	}
	return committedIdx-lastSnapshotIdx >= int64(p.SnapshotDistance())
}
