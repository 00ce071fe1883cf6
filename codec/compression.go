package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm of a block.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

var (
	// ErrCorruptBlock is returned for blocks whose header does not match
	// their payload.
	ErrCorruptBlock = errors.New("codec: corrupt block")

	// ErrUnknownCompression is returned for an unsupported algorithm.
	ErrUnknownCompression = errors.New("codec: unknown compression")
)

// String returns the stable name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression returns the compression named s.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [Compression uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the data is stored uncompressed.
const blockHeaderSize = 9

// CompressBlock wraps data in a block compressed with c. Data that does not
// shrink below 90% of its size is stored uncompressed.
func CompressBlock(data []byte, c Compression) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)
	switch c {
	case CompressionNone:
	case CompressionLZ4:
		if len(data) > 0 {
			compressed, err = compressLZ4(data)
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return appendBlock(c, data, nil), nil
	}
	return appendBlock(c, data, compressed), nil
}

func appendBlock(c Compression, data, compressed []byte) []byte {
	payload := data
	if compressed != nil {
		payload = compressed
	}
	out := make([]byte, blockHeaderSize+len(payload))
	out[0] = byte(c)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[5:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], payload)
	return out
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

// DecompressBlock returns the payload of a block produced by CompressBlock
// and the compression recorded in its header.
func DecompressBlock(block []byte) ([]byte, Compression, error) {
	if len(block) < blockHeaderSize {
		return nil, 0, fmt.Errorf("%w: %d bytes is too small for header", ErrCorruptBlock, len(block))
	}

	c := Compression(block[0])
	uncompressedSize := binary.LittleEndian.Uint32(block[1:])
	compressedSize := binary.LittleEndian.Uint32(block[5:])
	body := block[blockHeaderSize:]

	if compressedSize == 0 {
		if uint32(len(body)) != uncompressedSize {
			return nil, c, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptBlock, uncompressedSize, len(body))
		}
		return body, c, nil
	}
	if uint32(len(body)) != compressedSize {
		return nil, c, fmt.Errorf("%w: expected %d compressed bytes, got %d", ErrCorruptBlock, compressedSize, len(body))
	}

	result := make([]byte, uncompressedSize)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return nil, c, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(n) != uncompressedSize {
			return nil, c, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return result, c, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(body, result[:0])
		if err != nil {
			return nil, c, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, c, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return decoded, c, nil

	default:
		return nil, c, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
