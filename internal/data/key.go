package data

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ProtocolKey fingerprints the metadata files. The server sends its own key
// in the handshake; a client built from different data must not play.
func ProtocolKey(paths ...string) (uint64, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return 0, fmt.Errorf("protocol key: %w", err)
		}
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(raw)))
		h.Write(n[:])
		h.Write(raw)
	}
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8]), nil
}
