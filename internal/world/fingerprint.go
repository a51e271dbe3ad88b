package world

import (
	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/notegraphd/internal/fsid"
)

// secondSeed is prepended to the input (as 8 little-endian bytes) for the
// second xxhash pass so the
// two 64-bit hashes are independent enough to stand in for one 128-bit hash
// (see fsid.Fingerprint). It is an arbitrary constant, not a security
// property — fingerprints only need to detect content drift between builds.
const secondSeed = 0x9e3779b97f4a7c15

func fingerprint(content []byte) fsid.Fingerprint {
	hi := xxhash.Sum64(content)

	d := xxhash.New()
	var seedBuf [8]byte
	putUint64(seedBuf[:], secondSeed)
	d.Write(seedBuf[:])
	d.Write(content)
	lo := d.Sum64()

	return fsid.Fingerprint{Hi: hi, Lo: lo}
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
