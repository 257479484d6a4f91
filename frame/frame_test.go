package frame

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/quillh2/engine/herr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, h *Header) *Header {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := h.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	out := AcquireHeader()
	_, err = out.ReadFrom(bufio.NewReader(&buf))
	require.NoError(t, err)
	return out
}

func TestDataRoundTrip(t *testing.T) {
	d := AcquireData()
	d.SetBytes([]byte("hello"))
	d.SetEndStream(true)

	h := AcquireHeader()
	h.SetStream(1)
	h.SetBody(d)

	out := roundTrip(t, h)
	got := out.Body().(*Data)
	assert.Equal(t, "hello", string(got.Bytes()))
	assert.True(t, got.EndStream())
	assert.Equal(t, uint32(1), out.Stream())
}

func TestDataRoundTripWithPadding(t *testing.T) {
	d := AcquireData()
	d.SetBytes([]byte("padded body"))
	d.SetPadded(true)

	h := AcquireHeader()
	h.SetBody(d)

	out := roundTrip(t, h)
	got := out.Body().(*Data)
	assert.Equal(t, "padded body", string(got.Bytes()))
}

func TestHeadersRoundTripWithPriority(t *testing.T) {
	hf := AcquireHeaders()
	hf.SetHeaderBlockFragment([]byte("fake-hpack-block"))
	hf.SetEndHeaders(true)
	hf.SetPriority(3, true, 200)

	h := AcquireHeader()
	h.SetStream(5)
	h.SetBody(hf)

	out := roundTrip(t, h)
	got := out.Body().(*Headers)
	assert.Equal(t, "fake-hpack-block", string(got.HeaderBlockFragment()))
	assert.True(t, got.EndHeaders())

	dep, excl, weight, ok := got.Priority()
	require.True(t, ok)
	assert.Equal(t, uint32(3), dep)
	assert.True(t, excl)
	assert.Equal(t, byte(200), weight)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := AcquireSettings()
	s.Add(SettingInitialWindowSize, 65535)
	s.Add(SettingMaxConcurrentStreams, 100)

	h := AcquireHeader()
	h.SetBody(s)

	out := roundTrip(t, h)
	got := out.Body().(*Settings)
	v, ok := got.Get(SettingInitialWindowSize)
	require.True(t, ok)
	assert.Equal(t, uint32(65535), v)
}

func TestSettingsAckHasNoPayload(t *testing.T) {
	s := AcquireSettings()
	s.SetAck(true)

	h := AcquireHeader()
	h.SetBody(s)

	out := roundTrip(t, h)
	got := out.Body().(*Settings)
	assert.True(t, got.Ack())
	assert.Empty(t, got.Params())
}

func TestRstStreamRoundTrip(t *testing.T) {
	r := AcquireRstStream()
	r.SetCode(herr.Cancel)

	h := AcquireHeader()
	h.SetStream(7)
	h.SetBody(r)

	out := roundTrip(t, h)
	got := out.Body().(*RstStream)
	assert.Equal(t, herr.Cancel, got.Code())
}

func TestGoAwayRoundTrip(t *testing.T) {
	g := AcquireGoAway()
	g.SetLastStreamID(9)
	g.SetCode(herr.ProtocolError)
	g.SetDebugData([]byte("bye"))

	h := AcquireHeader()
	h.SetBody(g)

	out := roundTrip(t, h)
	got := out.Body().(*GoAway)
	assert.Equal(t, uint32(9), got.LastStreamID())
	assert.Equal(t, herr.ProtocolError, got.Code())
	assert.Equal(t, "bye", string(got.DebugData()))
}

func TestWindowUpdateRoundTrip(t *testing.T) {
	w := AcquireWindowUpdate()
	w.SetIncrement(1000)

	h := AcquireHeader()
	h.SetStream(3)
	h.SetBody(w)

	out := roundTrip(t, h)
	got := out.Body().(*WindowUpdate)
	assert.Equal(t, uint32(1000), got.Increment())
}

func TestPingRoundTrip(t *testing.T) {
	p := AcquirePing()
	p.SetData([]byte("12345678"))
	p.SetAck(true)

	h := AcquireHeader()
	h.SetBody(p)

	out := roundTrip(t, h)
	got := out.Body().(*Ping)
	assert.True(t, got.Ack())
	assert.Equal(t, "12345678", string(got.Data()))
}

func TestUnknownFrameTypeIsSkippedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	raw := [9]byte{0, 0, 2, 0xEE, 0, 0, 0, 0, 1}
	bw.Write(raw[:])
	bw.Write([]byte{0xAB, 0xCD})
	require.NoError(t, bw.Flush())

	h := AcquireHeader()
	_, err := h.ReadFrom(bufio.NewReader(&buf))
	assert.ErrorIs(t, err, ErrUnknownType)
}
