package h2

import (
	"errors"

	"github.com/quillh2/engine/hpack"
	"github.com/quillh2/engine/internal/bytesconv"
)

// validateHeaderBlock checks a fully HPACK-decoded header list against
// spec.md §4.2's post-decode rules. It never touches HPACK decoder state:
// by the time it runs, the dynamic table is already updated, so a
// violation here is a stream error (RST_STREAM), not a connection error —
// unlike a decode failure, which desynchronizes both peers' tables and
// must tear down the whole connection.
func validateHeaderBlock(fields []hpack.Field, isTrailer, endStream, isResponse bool) error {
	if isTrailer {
		return validateTrailer(fields, endStream)
	}

	seenRegular := false
	counts := make(map[string]int, 4)
	var path []byte

	for _, f := range fields {
		if f.IsPseudo() {
			if seenRegular {
				return errors.New("pseudo-header field after regular header field")
			}
			name := string(f.Name)
			if !allowedPseudo(name, isResponse) {
				return errors.New("unknown pseudo-header " + name)
			}
			counts[name]++
			if name == ":path" {
				path = f.Value
			}
			continue
		}

		seenRegular = true
		if !bytesconv.IsLower(f.Name) {
			return errors.New("header field name is not lowercase")
		}
	}

	if isResponse {
		if counts[":status"] != 1 {
			return errors.New(":status pseudo-header must appear exactly once")
		}
		status := fieldValue(fields, ":status")
		if !isAllDigits(status) {
			return errors.New(":status value must be digits only")
		}
		return nil
	}

	if counts[":method"] != 1 {
		return errors.New(":method pseudo-header must appear exactly once")
	}
	if counts[":scheme"] != 1 {
		return errors.New(":scheme pseudo-header must appear exactly once")
	}
	if counts[":path"] != 1 {
		return errors.New(":path pseudo-header must appear exactly once")
	}
	if len(path) == 0 {
		return errors.New(":path pseudo-header must not be empty")
	}
	if counts[":authority"] > 1 {
		return errors.New(":authority pseudo-header must appear at most once")
	}
	return nil
}

func validateTrailer(fields []hpack.Field, endStream bool) error {
	if !endStream {
		return errors.New("trailer header block must carry END_STREAM")
	}
	for _, f := range fields {
		if f.IsPseudo() {
			return errors.New("trailer header block must not contain pseudo-headers")
		}
		if !bytesconv.IsLower(f.Name) {
			return errors.New("header field name is not lowercase")
		}
	}
	return nil
}

func allowedPseudo(name string, isResponse bool) bool {
	if isResponse {
		return name == ":status"
	}
	switch name {
	case ":method", ":path", ":scheme", ":authority":
		return true
	default:
		return false
	}
}

func fieldValue(fields []hpack.Field, name string) []byte {
	for _, f := range fields {
		if string(f.Name) == name {
			return f.Value
		}
	}
	return nil
}

func isAllDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
