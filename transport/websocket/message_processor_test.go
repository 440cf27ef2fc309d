package websocket

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedPipe() (*bytes.Buffer, *bufio.ReadWriter) {
	var buffer bytes.Buffer
	return &buffer, bufio.NewReadWriter(bufio.NewReader(&buffer), bufio.NewWriter(&buffer))
}

func TestFrameCodec_RoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{name: "short frame", payload: []byte(`{"action":"match:state"}`)},
		{name: "two byte length frame", payload: bytes.Repeat([]byte("a"), 300)},
		{name: "eight byte length frame", payload: bytes.Repeat([]byte("b"), 1<<16+1)},
	}

	server := &Server{}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, bufrw := newBufferedPipe()

			err := writeFrame(bufrw, frame{
				isFin:   true,
				opCode:  opcodeText,
				length:  uint64(len(testCase.payload)),
				payload: testCase.payload,
			})
			require.NoError(t, err)

			read, err := server.readRequest(bufrw)

			require.NoError(t, err)
			assert.Equal(t, testCase.payload, read)
		})
	}
}

func TestFrameCodec_UnmasksClientFrames(t *testing.T) {
	// Clients always mask; build the frame the way a browser would.
	payload := []byte(`{"action":"match:subscribe"}`)
	mask := []byte{0x1f, 0x2e, 0x3d, 0x4c}

	raw := []byte{0x80 | opcodeText, 0x80 | byte(len(payload))}
	raw = append(raw, mask...)
	for i, b := range payload {
		raw = append(raw, b^mask[i%4])
	}

	_, bufrw := newBufferedPipe()
	_, err := bufrw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, bufrw.Flush())

	server := &Server{}
	read, err := server.readRequest(bufrw)

	require.NoError(t, err)
	assert.Equal(t, payload, read)
}

func TestFrameCodec_ReportsClientClose(t *testing.T) {
	_, bufrw := newBufferedPipe()

	err := writeFrame(bufrw, frame{isFin: true, opCode: opcodeClose})
	require.NoError(t, err)

	server := &Server{}
	_, err = server.readRequest(bufrw)

	assert.ErrorIs(t, err, errConnectionClosed)
}

func TestFrameCodec_RejectsOversizedFrames(t *testing.T) {
	t.Run("a huge claimed length is refused unread", func(t *testing.T) {
		// The header claims a terabyte that was never sent; the frame
		// must be rejected before anything that size is allocated.
		raw := []byte{0x80 | opcodeText, 127}
		raw = append(raw, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00)

		_, bufrw := newBufferedPipe()
		_, err := bufrw.Write(raw)
		require.NoError(t, err)
		require.NoError(t, bufrw.Flush())

		server := &Server{}
		_, err = server.readRequest(bufrw)

		assert.ErrorIs(t, err, errFrameTooLarge)
	})

	t.Run("a frame at the limit still passes", func(t *testing.T) {
		payload := bytes.Repeat([]byte("c"), maxFramePayloadSize)

		_, bufrw := newBufferedPipe()
		err := writeFrame(bufrw, frame{
			isFin:   true,
			opCode:  opcodeText,
			length:  uint64(len(payload)),
			payload: payload,
		})
		require.NoError(t, err)

		server := &Server{}
		read, err := server.readRequest(bufrw)

		require.NoError(t, err)
		assert.Equal(t, payload, read)
	})
}
