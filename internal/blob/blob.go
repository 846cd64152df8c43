// Package blob holds the byte format shared by tree snapshots and commits: a canonical msgpack
// encoding, deflate compressed when written to disk or sent over the wire.
package blob

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

// MaxSize bounds what Decompress and Decode inflate.
const MaxSize int64 = 1 << 30

// ErrTooLarge is returned when inflated data would pass the size limit.
var ErrTooLarge = errors.New("decompressed data exceeds the size limit")

var handle = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	h.WriteExt = true
	return h
}

// Marshal returns the canonical encoding of v. Equal values always encode to equal bytes, which is
// what content addressed ids are computed over.
func Marshal(v interface{}) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, handle).Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	return b, nil
}

// Unmarshal decodes data produced by Marshal into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, handle).Decode(v); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}

// Compress deflates b.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if _, err = w.Write(b); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err = w.Close(); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	return buf.Bytes(), nil
}

// Decompress inflates data written by Compress, up to MaxSize bytes.
func Decompress(data []byte) ([]byte, error) {
	return DecompressLimit(data, MaxSize)
}

// DecompressLimit inflates data, failing with ErrTooLarge once more than limit bytes come out.
func DecompressLimit(data []byte, limit int64) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	if int64(len(b)) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", limit)
	}
	return b, nil
}

// Encode marshals v and compresses the result.
func Encode(v interface{}) ([]byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return Compress(b)
}

// Decode reverses Encode.
func Decode(data []byte, v interface{}) error {
	return DecodeLimit(data, v, MaxSize)
}

// DecodeLimit is Decode with an explicit bound on the inflated size.
func DecodeLimit(data []byte, v interface{}, limit int64) error {
	b, err := DecompressLimit(data, limit)
	if err != nil {
		return err
	}
	return Unmarshal(b, v)
}
