// Package epg implements the SAX-driven XMLTV rewriter: it copies
// <channel> then <programme> elements whose id/channel attribute is a
// known tvg-id in the finished playlist, preserving attribute order and
// indentation, framed by the XMLTV declaration and a pefti-authored root.
package epg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pefti/pefti/internal/metrics"
)

// ParseError wraps an XML decoding failure or a mismatched element
// nesting, the ParseError error kind.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("epg: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// TvgIDSet is the minimal view of the finished playlist the filter needs:
// whether a tvg-id is known. *playlist.Playlist satisfies this.
type TvgIDSet interface {
	HasTvgID(id string) bool
}

type saxState int

const (
	waitingForParentNode saxState = iota
	insideNode
	outsideNode
)

// FilterDocument writes the framed output document to w for a single
// source EPG. It is a convenience wrapper around FilterSources.
func FilterDocument(w io.Writer, data []byte, pl TvgIDSet) error {
	return FilterSources(w, [][]byte{data}, pl)
}

// FilterSources writes one framed output document to w covering every
// source in sources, in order: the XML declaration and DOCTYPE, a pefti
// root element, then for each source its filtered <channel> elements
// followed by its filtered <programme> elements, and finally the closing
// root tag. Each source document is parsed twice (once per element
// kind), since the two passes are independent.
func FilterSources(w io.Writer, sources [][]byte, pl TvgIDSet) error {
	return FilterSourcesWithMetrics(w, sources, pl, nil)
}

// FilterSourcesWithMetrics is FilterSources, additionally recording one
// EpgElementsCopied increment (labeled by element name) per copied
// <channel>/<programme> element. mx may be nil.
func FilterSourcesWithMetrics(w io.Writer, sources [][]byte, pl TvgIDSet, mx *metrics.Metrics) error {
	if _, err := io.WriteString(w, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE tv SYSTEM \"xmltv.dtd\">\n<tv generator-info-name=\"pefti\">"); err != nil {
		return err
	}
	for _, data := range sources {
		if err := copyElements(w, bytes.NewReader(data), "channel", "id", pl, mx); err != nil {
			return err
		}
		if err := copyElements(w, bytes.NewReader(data), "programme", "channel", pl, mx); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n</tv>\n")
	return err
}

// CopyElements streams src and copies every parentNode element (and its
// full subtree) whose idAttr attribute is a known tvg-id in pl, to w.
// idAttr is "id" for a "channel" pass and "channel" for a "programme"
// pass.
func CopyElements(w io.Writer, src io.Reader, parentNode, idAttr string, pl TvgIDSet) error {
	return copyElements(w, src, parentNode, idAttr, pl, nil)
}

// CopyElementsWithMetrics is CopyElements, additionally incrementing
// mx.EpgElementsCopied, labeled by parentNode, once per copied element. mx
// may be nil.
func CopyElementsWithMetrics(w io.Writer, src io.Reader, parentNode, idAttr string, pl TvgIDSet, mx *metrics.Metrics) error {
	return copyElements(w, src, parentNode, idAttr, pl, mx)
}

func copyElements(w io.Writer, src io.Reader, parentNode, idAttr string, pl TvgIDSet, mx *metrics.Metrics) error {
	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel

	state := waitingForParentNode
	indentation := 0
	skipDepth := 0
	var currentNodeName string
	var characters strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			name := t.Name.Local
			if state == waitingForParentNode {
				if name != parentNode {
					continue
				}
				id := attrValue(t, idAttr)
				if !pl.HasTvgID(id) {
					skipDepth = 1
					continue
				}
				indentation = 1
			} else if state == insideNode {
				indentation++
			}
			characters.Reset()
			writeIndentedStart(w, indentation, t)
			currentNodeName = name
			state = insideNode

		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			name := t.Name.Local
			switch state {
			case waitingForParentNode:
				continue
			case insideNode:
				if name != currentNodeName {
					return &ParseError{Err: fmt.Errorf("mismatched end element %q, expected %q", name, currentNodeName)}
				}
				if strings.TrimSpace(characters.String()) != "" {
					io.WriteString(w, characters.String())
				}
			case outsideNode:
				io.WriteString(w, "\n")
				indentation--
				io.WriteString(w, strings.Repeat("\t", indentation))
			}
			characters.Reset()
			fmt.Fprintf(w, "</%s>", name)
			if name == parentNode {
				state = waitingForParentNode
				if mx != nil {
					mx.EpgElementsCopied.WithLabelValues(parentNode).Inc()
				}
			} else {
				state = outsideNode
			}

		case xml.CharData:
			if skipDepth > 0 || state != insideNode {
				continue
			}
			appendCharacters(&characters, string(t))
		}
	}
	return nil
}

func attrValue(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func writeIndentedStart(w io.Writer, indentation int, t xml.StartElement) {
	io.WriteString(w, "\n")
	io.WriteString(w, strings.Repeat("\t", indentation))
	io.WriteString(w, "<"+t.Name.Local)
	for _, a := range t.Attr {
		fmt.Fprintf(w, ` %s="%s"`, a.Name.Local, a.Value)
	}
	io.WriteString(w, ">")
}

// appendCharacters keeps spaces and non-whitespace characters and drops
// tabs, newlines and carriage returns, matching the SAX handler's character
// accumulation rule. A run left with only spaces is discarded when its
// element closes (see copyElements).
func appendCharacters(b *strings.Builder, s string) {
	for _, r := range s {
		if r == ' ' || !isXMLSpace(r) {
			b.WriteRune(r)
		}
	}
}

func isXMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
