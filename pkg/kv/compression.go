package kv

import (
	"bytes"
	"fmt"
	"io"

	"lintang/routex/pkg/datastructure"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

func compressData(inData []byte, bbufOut *bytes.Buffer) error {
	encoder, err := zstd.NewWriter(bbufOut, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	_, err = io.Copy(encoder, bytes.NewReader(inData))
	if err != nil {
		encoder.Close()
		return err
	}
	return encoder.Close()
}

func decompressData(inData []byte, out io.Writer) error {
	d, err := zstd.NewReader(bytes.NewReader(inData))
	if err != nil {
		return err
	}
	defer d.Close()

	_, err = io.Copy(out, d)
	return err
}

func encodeSnapshot(s datastructure.GraphSnapshot) ([]byte, error) {
	bb, err := binary.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode graph snapshot: %w", err)
	}
	var out bytes.Buffer
	if err := compressData(bb, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeSnapshot(bbCompressed []byte) (datastructure.GraphSnapshot, error) {
	var s datastructure.GraphSnapshot
	var bb bytes.Buffer
	if err := decompressData(bbCompressed, &bb); err != nil {
		return s, fmt.Errorf("decompress graph snapshot: %w", err)
	}
	if err := binary.Unmarshal(bb.Bytes(), &s); err != nil {
		return s, fmt.Errorf("decode graph snapshot: %w", err)
	}
	return s, nil
}

// graphMeta is stored next to the snapshot chunks.
type graphMeta struct {
	Chunks   int
	Size     int
	Checksum uint64
}

func encodeMeta(m graphMeta) ([]byte, error) {
	return binary.Marshal(m)
}

func decodeMeta(bb []byte) (graphMeta, error) {
	var m graphMeta
	err := binary.Unmarshal(bb, &m)
	return m, err
}
