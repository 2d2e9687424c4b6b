package localstore

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
)

// Record envelope: codec(1B) | payload | crc32c(payload)

const (
	codecRaw  byte = 0
	codecZstd byte = 1

	// compressMin skips compression for small records.
	compressMin = 256
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var errCorrupt = errors.New("localstore: corrupt record")

type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}

func (c *codec) encode(raw []byte) []byte {
	kind, payload := codecRaw, raw
	if len(raw) >= compressMin {
		if z := c.enc.EncodeAll(raw, nil); len(z) < len(raw) {
			kind, payload = codecZstd, z
		}
	}
	out := make([]byte, 0, 1+len(payload)+4)
	out = append(out, kind)
	out = append(out, payload...)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], crc32.Checksum(payload, castagnoli))
	return append(out, cb[:]...)
}

func (c *codec) decode(b []byte) ([]byte, error) {
	if len(b) < 5 {
		return nil, errCorrupt
	}
	payload := b[1 : len(b)-4]
	if crc32.Checksum(payload, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return nil, errCorrupt
	}
	switch b[0] {
	case codecRaw:
		return append([]byte(nil), payload...), nil
	case codecZstd:
		return c.dec.DecodeAll(payload, nil)
	default:
		return nil, errCorrupt
	}
}
