package badger

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/poiesic/affinity/core"
)

// Key prefixes for different data types. Prefixes must not be prefixes of
// each other, so prefix scans never bleed into a neighboring keyspace.
const (
	profileRecordPrefix  = "prorec"
	profileEmailPrefix   = "proeml"
	profilePopPrefix     = "propop"
	matchRecordPrefix    = "matrec"
	matchSourcePrefix    = "matsrc"
	matchScorePrefix     = "matsco"
	matchDonePrefix      = "matdone"
	matchRecordIDSeq     = "matseq"
	contactLogPrefix     = "cntlog"
	contactLogPairPrefix = "cntpair"
	contactLogIDSeq      = "cntseq"
)

// makeProfileKey generates a key for a profile by ID.
func makeProfileKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profileRecordPrefix, id))
}

// makeEmailKey generates a key for the email lookup index.
// Format: prefix:email
func makeEmailKey(email string) []byte {
	return []byte(profileEmailPrefix + ":" + email)
}

// makePopulationKey generates a composite key for the population index.
// Format: prefix:tag:createdAt:id
func makePopulationKey(population core.PopulationTag, createdAt time.Time, id core.ID) []byte {
	prefix := makePartialPopulationKey(population)
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialPopulationKey generates a partial key for population scans.
// Format: prefix:tag
func makePartialPopulationKey(population core.PopulationTag) []byte {
	prefix := []byte(profilePopPrefix + ":")
	buf := make([]byte, len(prefix)+1)
	offset := copy(buf, prefix)
	buf[offset] = byte(population)
	return buf
}

// makeMatchKey generates a key for a match record by ID.
func makeMatchKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", matchRecordPrefix, id))
}

// makeMatchSourceKey generates a composite key for the per-source index.
// Rank is part of the key so a prefix scan yields records in rank order.
// Format: prefix:sourceID:rank
func makeMatchSourceKey(sourceID core.ID, rank int) []byte {
	prefix := makePartialMatchSourceKey(sourceID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(rank))
	return buf
}

// makePartialMatchSourceKey generates a partial key for per-source scans.
// Format: prefix:sourceID
func makePartialMatchSourceKey(sourceID core.ID) []byte {
	prefix := []byte(matchSourcePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(sourceID))
	return buf
}

// makeMatchScoreKey generates a composite key for the score index.
// Scores are cosine similarities in [0, 1], so their IEEE-754 bits sort in
// the same order as the values and a reverse scan walks scores descending.
// Format: prefix:scoreBits:matchID
func makeMatchScoreKey(score float32, id core.ID) []byte {
	prefix := []byte(matchScorePrefix + ":")
	buf := make([]byte, len(prefix)+12)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], math.Float32bits(score))
	offset += 4
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeMatchDoneKey generates a key for the per-source processed marker.
func makeMatchDoneKey(sourceID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", matchDonePrefix, sourceID))
}

// makeContactLogKey generates a key for a contact log entry by ID.
func makeContactLogKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", contactLogPrefix, id))
}

// makeContactLogPairKey generates a composite key for the pair index.
// Format: prefix:seekerID:providerID
func makeContactLogPairKey(seekerID, providerID core.ID) []byte {
	prefix := []byte(contactLogPairPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(seekerID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(providerID))
	return buf
}
