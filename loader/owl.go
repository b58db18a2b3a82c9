package loader

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	nsOWL      = "http://www.w3.org/2002/07/owl#"
	nsRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS     = "http://www.w3.org/2000/01/rdf-schema#"
	nsOBO      = "http://purl.obolibrary.org/obo/"
	nsOBOInOwl = "http://www.geneontology.org/formats/oboInOwl#"
)

// owlProperties maps OBO object property ids to relation long codes.
// Properties not listed are passed through as ids and fail validation.
var owlProperties = map[string]string{
	"BFO:0000050": "part_of",
	"BFO:0000051": "has_part",
	"BFO:0000066": "occurs_in",
	"RO:0002211":  "regulates",
	"RO:0002213":  "positively_regulates",
	"RO:0002212":  "negatively_regulates",
	"RO:0002215":  "capable_of",
	"RO:0002216":  "capable_of_part_of",
	"IAO:0100001": "replaced_by",
}

type owlReader struct {
	dec     *xml.Decoder
	source  string
	pool    *internPool
	records []Record
}

// ReadOWL extracts relationship records from an OWL RDF/XML file. Named
// superclasses become is_a records; someValuesFrom restrictions become
// records of the restricted property; "term replaced by" and consider
// annotations on obsolete classes become replaced_by and consider records.
func ReadOWL(r io.Reader, source string) ([]Record, OBOHeader, error) {
	o := &owlReader{
		dec:     xml.NewDecoder(r),
		source:  source,
		pool:    newInternPool(),
		records: make([]Record, 0, 4096),
	}
	var hdr OBOHeader

	for {
		tok, err := o.dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, hdr, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case matchElement(se, nsOWL, "Class"):
			if err := o.parseClass(se); err != nil {
				return nil, hdr, err
			}
		case matchElement(se, nsOWL, "Ontology"):
			if err := o.parseHeader(se, &hdr); err != nil {
				return nil, hdr, err
			}
		case matchElement(se, nsRDF, "RDF"):
			// container; descend
		default:
			if err := o.dec.Skip(); err != nil {
				return nil, hdr, err
			}
		}
	}
	return o.records, hdr, nil
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// oboIDFromURI converts http://purl.obolibrary.org/obo/GO_0005575 to GO:0005575.
func oboIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, nsOBO)
	if !ok {
		return uri
	}
	if prefix, local, found := strings.Cut(id, "_"); found {
		return prefix + ":" + local
	}
	return id
}

func (o *owlReader) line() int {
	line, _ := o.dec.InputPos()
	return line
}

func (o *owlReader) parseHeader(se xml.StartElement, hdr *OBOHeader) error {
	hdr.Ontology = getAttr(se, nsRDF, "about")
	for {
		tok, err := o.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if matchElement(t, nsOWL, "versionIRI") {
				hdr.DataVersion = getAttr(t, nsRDF, "resource")
			}
			if err := o.dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (o *owlReader) parseClass(se xml.StartElement) error {
	id := oboIDFromURI(getAttr(se, nsRDF, "about"))
	emit := func(line int, relation, target string) {
		if id == "" || target == "" {
			return
		}
		o.records = append(o.records, Record{
			Source:   o.source,
			Line:     line,
			Child:    id,
			Parent:   target,
			Relation: o.pool.get(relation),
			LongCode: true,
		})
	}

	for {
		tok, err := o.dec.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			line := o.line()
			switch {
			case matchElement(el, nsRDFS, "subClassOf"):
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					emit(line, "is_a", oboIDFromURI(res))
					if err := o.dec.Skip(); err != nil {
						return err
					}
					continue
				}
				prop, target, err := o.parseRestriction()
				if err != nil {
					return err
				}
				emit(line, o.relation(prop), target)
			case matchElement(el, nsOBO, "IAO_0100001"), matchElement(el, nsOBOInOwl, "consider"):
				target, err := o.resourceOrText(el)
				if err != nil {
					return err
				}
				relation := "consider"
				if el.Name.Local == "IAO_0100001" {
					relation = "replaced_by"
				}
				emit(line, relation, target)
			default:
				if err := o.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (o *owlReader) relation(property string) string {
	if code, ok := owlProperties[property]; ok {
		return code
	}
	return property
}

// resourceOrText reads an annotation given either as rdf:resource or as text.
func (o *owlReader) resourceOrText(el xml.StartElement) (string, error) {
	if res := getAttr(el, nsRDF, "resource"); res != "" {
		if err := o.dec.Skip(); err != nil {
			return "", err
		}
		return oboIDFromURI(res), nil
	}
	var text string
	if err := o.dec.DecodeElement(&text, &el); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// parseRestriction reads the owl:Restriction inside a rdfs:subClassOf and
// returns its property and someValuesFrom target.
func (o *owlReader) parseRestriction() (property, target string, err error) {
	depth := 0
	for {
		tok, err := o.dec.Token()
		if err != nil {
			return "", "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case matchElement(el, nsOWL, "Restriction"):
				depth++
				continue
			case matchElement(el, nsOWL, "onProperty"):
				property = oboIDFromURI(getAttr(el, nsRDF, "resource"))
			case matchElement(el, nsOWL, "someValuesFrom"):
				target = oboIDFromURI(getAttr(el, nsRDF, "resource"))
			}
			if err := o.dec.Skip(); err != nil {
				return "", "", err
			}
		case xml.EndElement:
			depth--
			if depth < 0 {
				return property, target, nil
			}
		}
	}
}
