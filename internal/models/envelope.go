package models

// ResponseEnvelope is the canonical unit moving between the response builder,
// the cache, and the HTTP layer: status, headers, and body written verbatim.
type ResponseEnvelope struct {
	Status int
	Header map[string]string
	Body   []byte
}

// NoContent is the envelope for an empty or absent record set.
func NoContent() ResponseEnvelope {
	return ResponseEnvelope{Status: 204, Header: map[string]string{}}
}
