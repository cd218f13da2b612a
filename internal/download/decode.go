package download

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// ErrDecode is returned when an archive body is not valid gzip data.
var ErrDecode = errors.New("download: invalid gzip data")

// isCorrupt reports whether err indicates corrupt or truncated gzip input,
// as opposed to a failure of the underlying stream.
func isCorrupt(err error) bool {
	if errors.Is(err, gzip.ErrHeader) || errors.Is(err, gzip.ErrChecksum) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var corrupt flate.CorruptInputError
	return errors.As(err, &corrupt)
}

// decodeReader streams gzip-decoded bytes, tagging corruption errors with
// ErrDecode so they classify as per-item decode failures. Decoding is
// streaming: memory use is constant relative to payload size.
type decodeReader struct {
	zr *gzip.Reader
}

// newDecodeReader wraps r in a streaming gzip decoder. The gzip header is
// read eagerly, so an input that is not gzip at all fails here.
func newDecodeReader(r io.Reader) (*decodeReader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		if isCorrupt(err) {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, err
	}
	return &decodeReader{zr: zr}, nil
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.zr.Read(p)
	if err != nil && err != io.EOF && isCorrupt(err) {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return n, err
}

func (d *decodeReader) Close() error {
	return d.zr.Close()
}
