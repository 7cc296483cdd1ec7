// Package parser extracts JSON-LD blocks and declared dates from raw HTML.
//
// It works on surface patterns only and never re-serializes markup, so the
// byte offsets it reports can anchor in-place rewrites without disturbing
// surrounding content.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonldOpenRe    = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>`)
	scriptCloseRe   = regexp.MustCompile(`(?i)</script\s*>`)
	datePublishedRe = regexp.MustCompile(`"datePublished"\s*:\s*"(\d{4}-\d{2}-\d{2})`)
	dateModifiedRe  = regexp.MustCompile(`"dateModified"\s*:\s*"(\d{4}-\d{2}-\d{2})`)
)

// JSONLDBlock is one JSON-LD script payload located in an HTML file.
// Start and End are byte offsets of the payload (exclusive of the script
// tags) within the original content.
type JSONLDBlock struct {
	Payload string
	Start   int
	End     int
}

// Blocks returns every JSON-LD script payload in document order.
// Payloads are returned verbatim, including whitespace and any syntax errors,
// so validators can report on the original bytes.
func Blocks(data []byte) []JSONLDBlock {
	var out []JSONLDBlock
	content := string(data)
	offset := 0
	for {
		loc := jsonldOpenRe.FindStringIndex(content[offset:])
		if loc == nil {
			break
		}
		payloadStart := offset + loc[1]
		close := scriptCloseRe.FindStringIndex(content[payloadStart:])
		if close == nil {
			break
		}
		payloadEnd := payloadStart + close[0]
		out = append(out, JSONLDBlock{
			Payload: content[payloadStart:payloadEnd],
			Start:   payloadStart,
			End:     payloadEnd,
		})
		offset = payloadStart + close[1]
	}
	return out
}

// Decode parses the block payload into a generic map. A JSON-LD payload may
// be a single object or an array of objects; arrays decode to their first
// object and ok reports whether any object was produced.
func (b JSONLDBlock) Decode() (map[string]any, bool) {
	trimmed := strings.TrimSpace(b.Payload)
	if strings.HasPrefix(trimmed, "[") {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil || len(arr) == 0 {
			return nil, false
		}
		return arr[0], true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// DeclaredDates returns the first datePublished and dateModified values
// declared in the page's structured data, in YYYY-MM-DD form. Either may be
// empty when not declared.
func DeclaredDates(data []byte) (published, modified string) {
	for _, b := range Blocks(data) {
		if published == "" {
			if m := datePublishedRe.FindStringSubmatch(b.Payload); m != nil {
				published = m[1]
			}
		}
		if modified == "" {
			if m := dateModifiedRe.FindStringSubmatch(b.Payload); m != nil {
				modified = m[1]
			}
		}
		if published != "" && modified != "" {
			break
		}
	}
	return published, modified
}
