package h2

import (
	"testing"

	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/hpack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	NopEventSink
	headers []recordedHeaders
	data    []recordedData
	closed  []uint32
	goAway  bool
}

type recordedHeaders struct {
	streamID  uint32
	fields    []hpack.Field
	endStream bool
}

type recordedData struct {
	streamID  uint32
	data      []byte
	endStream bool
}

func (r *recordingSink) OnHeaders(streamID uint32, fields []hpack.Field, endStream bool) {
	cp := append([]hpack.Field(nil), fields...)
	r.headers = append(r.headers, recordedHeaders{streamID, cp, endStream})
}

func (r *recordingSink) OnData(streamID uint32, data []byte, endStream bool) {
	cp := append([]byte(nil), data...)
	r.data = append(r.data, recordedData{streamID, cp, endStream})
}

func (r *recordingSink) OnStreamClosed(streamID uint32, code herr.Code) {
	r.closed = append(r.closed, streamID)
}

func (r *recordingSink) OnGoAway(uint32, herr.Code, []byte) { r.goAway = true }

// pump feeds everything a currently has queued into b, then swaps the two
// and repeats until nothing further is produced, to settle the SETTINGS/SETTINGS-ACK
// handshake between two in-process Connections without a real socket.
func pump(t *testing.T, a, b *Connection) {
	t.Helper()
	for i := 0; i < 10; i++ {
		out := a.Flush()
		if len(out) == 0 {
			return
		}
		_, err := b.ConsumeBytes(out)
		require.NoError(t, err)
		a, b = b, a
	}
}

func handshakePair(t *testing.T) (client, server *Connection, cSink, sSink *recordingSink) {
	t.Helper()
	cSink = &recordingSink{}
	sSink = &recordingSink{}
	client = New(RoleClient, WithEventSink(cSink))
	server = New(RoleServer, WithEventSink(sSink))

	client.OnConnect(true)
	server.OnConnect(true)

	out := client.Handshake()
	_, err := server.ConsumeBytes(out)
	require.NoError(t, err)

	pump(t, server, client)

	assert.Equal(t, StateReady, client.State())
	assert.Equal(t, StateReady, server.State())
	return
}

func TestHandshakeReachesReadyBothSides(t *testing.T) {
	handshakePair(t)
}

func TestRequestResponseRoundTrip(t *testing.T) {
	client, server, _, sSink := handshakePair(t)

	reqFields := []hpack.Field{
		{Name: []byte(":method"), Value: []byte("GET")},
		{Name: []byte(":scheme"), Value: []byte("http")},
		{Name: []byte(":path"), Value: []byte("/")},
	}
	streamID, err := client.WriteMessage(0, reqFields, true)
	require.NoError(t, err)

	out := client.Flush()
	_, err = server.ConsumeBytes(out)
	require.NoError(t, err)

	require.Len(t, sSink.headers, 1)
	assert.Equal(t, streamID, sSink.headers[0].streamID)
	assert.True(t, sSink.headers[0].endStream)
}

func TestDataFlowControlAccounting(t *testing.T) {
	client, server, _, sSink := handshakePair(t)

	streamID, err := client.WriteMessage(0, []hpack.Field{
		{Name: []byte(":method"), Value: []byte("POST")},
		{Name: []byte(":scheme"), Value: []byte("http")},
		{Name: []byte(":path"), Value: []byte("/upload")},
	}, false)
	require.NoError(t, err)
	_, err = server.ConsumeBytes(client.Flush())
	require.NoError(t, err)

	payload := []byte("hello world")
	n, err := client.WriteData(streamID, payload, true)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	_, err = server.ConsumeBytes(client.Flush())
	require.NoError(t, err)

	require.Len(t, sSink.data, 1)
	assert.Equal(t, payload, sSink.data[0].data)
	assert.True(t, sSink.data[0].endStream)
}

func TestResetStreamClosesBothSides(t *testing.T) {
	client, server, cSink, sSink := handshakePair(t)

	streamID, err := client.WriteMessage(0, []hpack.Field{
		{Name: []byte(":method"), Value: []byte("GET")},
		{Name: []byte(":scheme"), Value: []byte("http")},
		{Name: []byte(":path"), Value: []byte("/")},
	}, false)
	require.NoError(t, err)
	_, err = server.ConsumeBytes(client.Flush())
	require.NoError(t, err)

	server.WriteReset(streamID, herr.Cancel)
	_, err = client.ConsumeBytes(server.Flush())
	require.NoError(t, err)

	assert.Contains(t, cSink.closed, streamID)
	require.Len(t, sSink.headers, 1)
}

func TestBadPrefaceFails(t *testing.T) {
	server := New(RoleServer, WithEventSink(&recordingSink{}))
	server.OnConnect(true)

	_, err := server.ConsumeBytes([]byte("GARBAGE-NOT-A-PREFACE-000000000"))
	require.Error(t, err)
	assert.Equal(t, StateClosed, server.State())
}

func TestGoAwayStopGracefulWithNoOpenStreams(t *testing.T) {
	client, server, _, _ := handshakePair(t)
	_ = client

	out := server.Stop()
	assert.NotEmpty(t, out)
	assert.Equal(t, StateClosed, server.State())
}

func TestConnectionLostClosesOpenStreams(t *testing.T) {
	client, server, _, sSink := handshakePair(t)

	_, err := client.WriteMessage(0, []hpack.Field{
		{Name: []byte(":method"), Value: []byte("GET")},
		{Name: []byte(":scheme"), Value: []byte("http")},
		{Name: []byte(":path"), Value: []byte("/")},
	}, false)
	require.NoError(t, err)
	_, err = server.ConsumeBytes(client.Flush())
	require.NoError(t, err)

	server.ConnectionLost()
	assert.Equal(t, StateClosed, server.State())
	assert.NotEmpty(t, sSink.closed)
}
