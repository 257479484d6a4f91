// Package h1 adapts valyala/fasthttp's HTTP/1 header parser into the
// "oracle" shape the connection state machine needs: feed it bytes, and it
// reports either "need more", a parse error, or a fully parsed message plus
// how many bytes it consumed. It owns no socket and blocks on nothing.
package h1

import (
	"bufio"
	"bytes"
	"errors"

	"github.com/valyala/fasthttp"
)

// Result is what Oracle.Feed reports after looking at the bytes so far.
type Result int

const (
	// NeedMore means the supplied bytes are an incomplete HTTP/1 message;
	// call Feed again once more bytes have arrived.
	NeedMore Result = iota
	// Parsed means a full request-line/status-line + header block was
	// decoded; Consumed bytes may be discarded by the caller.
	Parsed
	// Failed means the bytes are not a valid HTTP/1 message.
	Failed
)

var ErrMessage = errors.New("h1: malformed message")

// Oracle incrementally parses one HTTP/1.x request from a byte stream.
type Oracle struct {
	header   fasthttp.RequestHeader
	consumed int
}

// NewOracle returns an Oracle ready to parse a request header.
func NewOracle() *Oracle { return &Oracle{} }

// Reset prepares the Oracle to parse the next message.
func (o *Oracle) Reset() {
	o.header.Reset()
	o.consumed = 0
}

// Feed attempts to parse a request-line + header block from the front of
// buf. It never blocks and never reads past buf.
func (o *Oracle) Feed(buf []byte) (Result, int, error) {
	br := bufio.NewReader(bytes.NewReader(buf))
	err := o.header.Read(br)
	switch {
	case err == nil:
		n := len(buf) - br.Buffered()
		o.consumed = n
		return Parsed, n, nil
	case errors.Is(err, bufio.ErrBufferFull) || isEOFErr(err):
		return NeedMore, 0, nil
	default:
		return Failed, 0, ErrMessage
	}
}

func isEOFErr(err error) bool {
	return err != nil && err.Error() == "EOF"
}

// Header returns the parsed request header. Valid only after Feed returns
// Parsed.
func (o *Oracle) Header() *fasthttp.RequestHeader { return &o.header }

// IsH2CUpgrade reports whether the parsed request carries the h2c upgrade
// handshake (RFC 7540 §3.2): an HTTP/1.1 request with Upgrade: h2c and a
// non-empty HTTP2-Settings header. The Connection header is not inspected.
func (o *Oracle) IsH2CUpgrade() bool {
	if !bytes.Equal(o.header.Protocol(), []byte("HTTP/1.1")) {
		return false
	}
	upgrade := o.header.Peek("Upgrade")
	if !bytes.EqualFold(upgrade, []byte("h2c")) {
		return false
	}
	return len(o.header.Peek("HTTP2-Settings")) > 0
}

// KeepAliveDefault reports the keep-alive default for the message's
// declared HTTP version: true for 1.1 (persistent unless Connection:
// close), false for 1.0 (non-persistent unless Connection: keep-alive).
func (o *Oracle) KeepAliveDefault() bool {
	return bytes.Equal(o.header.Protocol(), []byte("HTTP/1.1"))
}
