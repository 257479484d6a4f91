package hpack

// Field is a decoded or to-be-encoded header field. Name and value are
// plain byte slices; spec.md's Header type additionally tracks ownership
// (owned vs. borrowed) for manual-memory targets, which Go's GC makes
// unnecessary here.
type Field struct {
	Name, Value []byte
}

// IsPseudo reports whether f is a pseudo-header (":method", ":path", ...).
func (f Field) IsPseudo() bool {
	return len(f.Name) > 0 && f.Name[0] == ':'
}

// Size is the RFC 7541 §4.1 entry cost: 32 plus the octet length of the
// name and value.
func (f Field) Size() int {
	return 32 + len(f.Name) + len(f.Value)
}

// staticTable is the fixed RFC 7541 Appendix A table, 1-indexed by callers
// (index 0 here == HPACK index 1).
var staticTable = [61]Field{
	{Name: []byte(":authority")},
	{Name: []byte(":method"), Value: []byte("GET")},
	{Name: []byte(":method"), Value: []byte("POST")},
	{Name: []byte(":path"), Value: []byte("/")},
	{Name: []byte(":path"), Value: []byte("/index.html")},
	{Name: []byte(":scheme"), Value: []byte("http")},
	{Name: []byte(":scheme"), Value: []byte("https")},
	{Name: []byte(":status"), Value: []byte("200")},
	{Name: []byte(":status"), Value: []byte("204")},
	{Name: []byte(":status"), Value: []byte("206")},
	{Name: []byte(":status"), Value: []byte("304")},
	{Name: []byte(":status"), Value: []byte("400")},
	{Name: []byte(":status"), Value: []byte("404")},
	{Name: []byte(":status"), Value: []byte("500")},
	{Name: []byte("accept-charset")},
	{Name: []byte("accept-encoding"), Value: []byte("gzip, deflate")},
	{Name: []byte("accept-language")},
	{Name: []byte("accept-ranges")},
	{Name: []byte("accept")},
	{Name: []byte("access-control-allow-origin")},
	{Name: []byte("age")},
	{Name: []byte("allow")},
	{Name: []byte("authorization")},
	{Name: []byte("cache-control")},
	{Name: []byte("content-disposition")},
	{Name: []byte("content-encoding")},
	{Name: []byte("content-language")},
	{Name: []byte("content-length")},
	{Name: []byte("content-location")},
	{Name: []byte("content-range")},
	{Name: []byte("content-type")},
	{Name: []byte("cookie")},
	{Name: []byte("date")},
	{Name: []byte("etag")},
	{Name: []byte("expect")},
	{Name: []byte("expires")},
	{Name: []byte("from")},
	{Name: []byte("host")},
	{Name: []byte("if-match")},
	{Name: []byte("if-modified-since")},
	{Name: []byte("if-none-match")},
	{Name: []byte("if-range")},
	{Name: []byte("if-unmodified-since")},
	{Name: []byte("last-modified")},
	{Name: []byte("link")},
	{Name: []byte("location")},
	{Name: []byte("max-forwards")},
	{Name: []byte("proxy-authenticate")},
	{Name: []byte("proxy-authorization")},
	{Name: []byte("range")},
	{Name: []byte("referer")},
	{Name: []byte("refresh")},
	{Name: []byte("retry-after")},
	{Name: []byte("server")},
	{Name: []byte("set-cookie")},
	{Name: []byte("strict-transport-security")},
	{Name: []byte("transfer-encoding")},
	{Name: []byte("user-agent")},
	{Name: []byte("vary")},
	{Name: []byte("via")},
	{Name: []byte("www-authenticate")},
}

const staticTableSize = len(staticTable)

// staticNameIndex maps a header name to the lowest static-table index (1-based)
// carrying that name, for the encoder's name-only match path.
var staticNameIndex = func() map[string]int {
	m := make(map[string]int, staticTableSize)
	for i, f := range staticTable {
		if _, ok := m[string(f.Name)]; !ok {
			m[string(f.Name)] = i + 1
		}
	}
	return m
}()

// staticFullIndex maps "name\x00value" to the exact static-table index
// (1-based) for the encoder's full-match path.
var staticFullIndex = func() map[string]int {
	m := make(map[string]int, staticTableSize)
	for i, f := range staticTable {
		m[string(f.Name)+"\x00"+string(f.Value)] = i + 1
	}
	return m
}()
