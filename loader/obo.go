package loader

import (
	"bufio"
	"io"
	"strings"
)

// OBOHeader holds the header tags of an OBO file.
type OBOHeader struct {
	FormatVersion string `json:"format_version,omitempty"`
	DataVersion   string `json:"data_version,omitempty"`
	Ontology      string `json:"ontology,omitempty"`
}

// internPool avoids duplicate string allocations for repeated values.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

// oboReader walks the stanzas of an OBO file, tracking line numbers.
type oboReader struct {
	scanner *bufio.Scanner
	source  string
	line    int
	pool    *internPool
	records []Record
}

func (o *oboReader) scan() bool {
	if !o.scanner.Scan() {
		return false
	}
	o.line++
	return true
}

// ReadOBO extracts relationship records from an OBO file. Each [Term]
// stanza contributes its is_a, relationship, replaced_by and consider tags
// as long-code records; other stanzas are skipped. Relationship names are
// resolved later by Validate, so ontology-specific relations the engine
// does not model surface as per-record failures.
func ReadOBO(r io.Reader, source string) ([]Record, OBOHeader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	o := &oboReader{
		scanner: scanner,
		source:  source,
		pool:    newInternPool(),
		records: make([]Record, 0, 4096),
	}
	var hdr OBOHeader

	inHeader := true
	next := "" // stanza header that ended the previous term
	for {
		var line string
		switch {
		case next != "":
			line, next = next, ""
		case o.scan():
			line = o.scanner.Text()
		default:
			return o.records, hdr, scanner.Err()
		}
		if line == "" {
			continue
		}
		if line[0] == '[' {
			inHeader = false
			if line == "[Term]" {
				next = o.parseTerm()
			}
			continue
		}
		if inHeader {
			parseHeaderLine(&hdr, line)
		}
	}
}

func parseHeaderLine(hdr *OBOHeader, line string) {
	key, val, ok := strings.Cut(line, ": ")
	if !ok {
		return
	}
	switch key {
	case "format-version":
		hdr.FormatVersion = val
	case "data-version":
		hdr.DataVersion = val
	case "ontology":
		hdr.Ontology = val
	}
}

// parseTerm reads one [Term] stanza up to the blank line or stanza header
// that ends it, returning that header ("" otherwise). Records are emitted
// once the stanza's id is known.
func (o *oboReader) parseTerm() (next string) {
	type pending struct {
		line     int
		relation string
		target   string
	}
	var (
		id    string
		links []pending
	)
	for o.scan() {
		line := o.scanner.Text()
		if line == "" {
			break
		}
		if line[0] == '[' {
			next = line
			break
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "id":
			id = val
		case "is_a":
			links = append(links, pending{o.line, o.pool.get("is_a"), stripComment(val)})
		case "relationship":
			rel, target := parseRelationship(val)
			links = append(links, pending{o.line, o.pool.get(rel), target})
		case "replaced_by", "consider":
			links = append(links, pending{o.line, o.pool.get(key), stripComment(val)})
		}
	}
	for _, l := range links {
		o.records = append(o.records, Record{
			Source:   o.source,
			Line:     l.line,
			Child:    id,
			Parent:   l.target,
			Relation: l.relation,
			LongCode: true,
		})
	}
	return next
}

// stripComment removes a trailing "! name" comment and any {qualifiers}.
func stripComment(val string) string {
	v, _, _ := strings.Cut(val, "!")
	if i := strings.IndexByte(v, '{'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// parseRelationship parses: "part_of GO:0005575 ! cellular_component"
func parseRelationship(val string) (string, string) {
	rel, rest, _ := strings.Cut(stripComment(val), " ")
	return rel, strings.TrimSpace(rest)
}
