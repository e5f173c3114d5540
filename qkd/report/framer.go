package report

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxRecordSize bounds the length prefix a Reader accepts.
var MaxRecordSize int32 = 64 << 20

// A Writer writes framed reports. The structure of the frame is trivial:
// record-length | record, with the length a little-endian int32.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer framing records onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Write(r *Report) error {
	marshalled, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := binary.Write(p.w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return errors.Wrap(err, "writing record length")
	}
	if _, err := p.w.Write(marshalled); err != nil {
		return errors.Wrap(err, "writing record")
	}
	return nil
}

// A Reader reads reports framed by a Writer.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader consuming records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read returns the next report, or io.EOF once the stream ends cleanly
// between records.
func (p *Reader) Read() (*Report, error) {
	var mLen int32
	if err := binary.Read(p.r, binary.LittleEndian, &mLen); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "reading record length")
	}
	if mLen < 0 || mLen > MaxRecordSize {
		return nil, errors.Errorf("record length %d out of range", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(p.r, marshalled); err != nil {
		return nil, errors.Wrap(err, "reading record")
	}
	return Unmarshal(marshalled)
}
