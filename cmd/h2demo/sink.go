package main

import (
	"github.com/quillh2/engine/h2"
	"github.com/quillh2/engine/h2log"
	"github.com/quillh2/engine/herr"
	"github.com/quillh2/engine/hpack"
)

// echoSink answers every request with a small text body, just enough to
// exercise the full HEADERS/DATA/WINDOW_UPDATE path end to end. A real
// deployment would hand fields off to a fasthttp.RequestHandler instead.
type echoSink struct {
	h2.NopEventSink
	engine *h2.Connection
	logger *h2log.Logger
}

func (s *echoSink) OnHeaders(streamID uint32, fields []hpack.Field, endStream bool) {
	if !endStream {
		return
	}

	var path string
	for _, f := range fields {
		if string(f.Name) == ":path" {
			path = string(f.Value)
		}
	}
	s.logger.Debug("request", h2log.Stream(streamID))

	body := []byte("hello from h2demo: " + path + "\n")
	resp := []hpack.Field{
		{Name: []byte(":status"), Value: []byte("200")},
		{Name: []byte("content-type"), Value: []byte("text/plain; charset=utf-8")},
	}

	if _, err := s.engine.WriteMessage(streamID, resp, false); err != nil {
		s.engine.WriteReset(streamID, herr.InternalError)
		return
	}
	if _, err := s.engine.WriteData(streamID, body, true); err != nil {
		s.engine.WriteReset(streamID, herr.InternalError)
	}
}

func (s *echoSink) OnGoAway(lastStreamID uint32, code herr.Code, debugData []byte) {
	s.logger.Info("peer sent GOAWAY", h2log.Stream(lastStreamID))
}
