// Package marc reads MARC21 records from their XML serialization. It keeps
// the tagged-field structure intact; interpreting tags into bibliographic
// meaning is the caller's job.
package marc

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Record is one MARC21 record: a leader, control fields (tags 00X) and data
// fields with indicators and coded subfields.
type Record struct {
	Leader        string         `xml:"leader"`
	ControlFields []ControlField `xml:"controlfield"`
	DataFields    []DataField    `xml:"datafield"`
}

// ControlField is a fixed field without subfields (001, 003, 008, ...).
type ControlField struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

// DataField is a variable field with two indicators and repeated subfields.
type DataField struct {
	Tag       string     `xml:"tag,attr"`
	Ind1      string     `xml:"ind1,attr"`
	Ind2      string     `xml:"ind2,attr"`
	Subfields []Subfield `xml:"subfield"`
}

// Subfield is one coded value inside a data field.
type Subfield struct {
	Code string `xml:"code,attr"`
	Text string `xml:",chardata"`
}

// ParseRecords extracts every record element from a MARC XML document.
// Element matching is by local name only; SRU responses wrap records in
// varying namespaces, and the SRU container element is itself named "record",
// so records are built from a stream with a stack instead of one DecodeElement
// per record. Wrapper records without MARC content are discarded.
func ParseRecords(r io.Reader) ([]Record, error) {
	decoder := xml.NewDecoder(r)
	var records []Record
	var stack []*Record

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing MARC XML: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "record":
				stack = append(stack, &Record{})
			case "leader":
				if cur := top(stack); cur != nil {
					var leader struct {
						Value string `xml:",chardata"`
					}
					if err := decoder.DecodeElement(&leader, &el); err != nil {
						return nil, fmt.Errorf("decoding leader: %w", err)
					}
					cur.Leader = leader.Value
				}
			case "controlfield":
				if cur := top(stack); cur != nil {
					var f ControlField
					if err := decoder.DecodeElement(&f, &el); err != nil {
						return nil, fmt.Errorf("decoding controlfield: %w", err)
					}
					cur.ControlFields = append(cur.ControlFields, f)
				}
			case "datafield":
				if cur := top(stack); cur != nil {
					var f DataField
					if err := decoder.DecodeElement(&f, &el); err != nil {
						return nil, fmt.Errorf("decoding datafield: %w", err)
					}
					cur.DataFields = append(cur.DataFields, f)
				}
			}
		case xml.EndElement:
			if el.Name.Local != "record" || len(stack) == 0 {
				continue
			}
			rec := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if rec.Leader != "" || len(rec.ControlFields) > 0 || len(rec.DataFields) > 0 {
				rec.clean()
				records = append(records, *rec)
			}
		}
	}

	return records, nil
}

func top(stack []*Record) *Record {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func (r *Record) clean() {
	r.Leader = strings.TrimSpace(r.Leader)
	for i := range r.ControlFields {
		r.ControlFields[i].Value = strings.TrimSpace(r.ControlFields[i].Value)
	}
	for i := range r.DataFields {
		f := &r.DataFields[i]
		f.Ind1 = strings.TrimSpace(f.Ind1)
		f.Ind2 = strings.TrimSpace(f.Ind2)
		for j := range f.Subfields {
			f.Subfields[j].Text = CleanText(f.Subfields[j].Text)
		}
	}
}

// ControlValue returns the value of the first control field with the tag.
func (r *Record) ControlValue(tag string) string {
	for _, f := range r.ControlFields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// First returns the first data field with the tag, or nil.
func (r *Record) First(tag string) *DataField {
	for i := range r.DataFields {
		if r.DataFields[i].Tag == tag {
			return &r.DataFields[i]
		}
	}
	return nil
}

// Fields returns every data field with the tag, in document order.
func (r *Record) Fields(tag string) []DataField {
	var out []DataField
	for _, f := range r.DataFields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// Subfield returns the first subfield value with the code, or "".
func (f *DataField) Subfield(code string) string {
	for _, s := range f.Subfields {
		if s.Code == code {
			return s.Text
		}
	}
	return ""
}

// SubfieldValues returns every value of the repeated subfield code.
func (f *DataField) SubfieldValues(code string) []string {
	var out []string
	for _, s := range f.Subfields {
		if s.Code == code {
			out = append(out, s.Text)
		}
	}
	return out
}

// Code points the upstream catalog embeds into subfield text: C1 controls
// marking a non-sorting prefix (U+0098/U+009C, plus U+0088/U+0089 in older
// exports) and the ISO 2709 field/record separators that leak through when a
// record was converted from the binary serialization.
var strippedRunes = map[rune]struct{}{
	'\u0088': {}, // non-sort begin (older exports)
	'\u0089': {}, // non-sort end (older exports)
	'\u0098': {}, // start of string, marks a non-sorting prefix
	'\u009c': {}, // string terminator
	'\u001d': {}, // record terminator
	'\u001e': {}, // field terminator
	'\u001f': {}, // subfield delimiter
}

// CleanText removes non-sorting markers and delimiter control characters,
// collapses whitespace runs and trims stray ISBD delimiters from both ends.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, drop := strippedRunes[r]; !drop {
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	return strings.Trim(out, " :/")
}
