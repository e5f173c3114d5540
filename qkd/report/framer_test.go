package report

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	l, r := net.Pipe()
	w := NewWriter(l)
	rd := NewReader(r)
	msg := sampleReport()

	// net.Pipe() doesn't do any sort of buffering, so we perform these
	// operations asynchronously.
	wErr := make(chan error, 1)
	go func() { wErr <- w.Write(msg) }()
	got, err := rd.Read()
	require.NoError(t, err)
	require.NoError(t, <-wErr)
	assert.Equal(t, msg, got)
}

func TestReadStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	first := sampleReport()
	second := sampleReport()
	second.Protocol = "bb84"
	second.EveKey = nil
	require.NoError(t, w.Write(first))
	require.NoError(t, w.Write(second))

	rd := NewReader(&buf)
	got, err := rd.Read()
	require.NoError(t, err)
	assert.Equal(t, first, got)
	got, err = rd.Read()
	require.NoError(t, err)
	assert.Equal(t, second, got)
	_, err = rd.Read()
	assert.Equal(t, io.EOF, err)
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(sampleReport()))
	b := buf.Bytes()

	_, err := NewReader(bytes.NewReader(b[:len(b)-1])).Read()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	_, err = NewReader(bytes.NewReader(b[:2])).Read()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReadBadLength(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})).Read()
	assert.Error(t, err)
}
