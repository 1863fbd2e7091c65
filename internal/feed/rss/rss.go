// Package rss writes RSS 2.0 documents with hooks for destination-specific
// root attributes and per-item extension elements.
package rss

import (
	"encoding/xml"
	"errors"
	"io"
	"time"
)

const (
	Declaration = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	AtomNS      = "http://www.w3.org/2005/Atom"
)

type Channel struct {
	Title       string
	Link        string
	Description string

	// FeedURL, when set, is advertised as the atom:link self reference.
	FeedURL       string
	Language      string
	LastBuildDate time.Time
}

type Item struct {
	Title       string
	Link        string
	Description string
	GUID        string
}

// ElementWriter emits elements into the current item. The first error is
// kept and every later call becomes a no-op.
type ElementWriter struct {
	enc *xml.Encoder
	err error
}

func (e *ElementWriter) Start(name string, attrs ...xml.Attr) {
	if e.err != nil {
		return
	}
	e.err = e.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (e *ElementWriter) End(name string) {
	if e.err != nil {
		return
	}
	e.err = e.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

// Quick writes <name attrs>value</name>.
func (e *ElementWriter) Quick(name, value string, attrs ...xml.Attr) {
	e.Start(name, attrs...)
	if e.err == nil && value != "" {
		e.err = e.enc.EncodeToken(xml.CharData(value))
	}
	e.End(name)
}

func (e *ElementWriter) Err() error { return e.err }

// Writer serializes a channel and its items.
type Writer struct {
	// RootAttrs are appended to the <rss> element after the base attributes.
	RootAttrs []xml.Attr

	// ItemElements is called after the base elements of item i are written.
	ItemElements func(e *ElementWriter, i int) error
}

var ErrNilOutput = errors.New("rss: output writer is nil")

func (w Writer) Write(out io.Writer, ch Channel, items []Item) error {
	if out == nil {
		return ErrNilOutput
	}

	if _, err := io.WriteString(out, Declaration); err != nil {
		return err
	}

	enc := xml.NewEncoder(out)
	e := &ElementWriter{enc: enc}

	rootAttrs := []xml.Attr{
		{Name: xml.Name{Local: "version"}, Value: "2.0"},
		{Name: xml.Name{Local: "xmlns:atom"}, Value: AtomNS},
	}
	rootAttrs = append(rootAttrs, w.RootAttrs...)

	e.Start("rss", rootAttrs...)
	e.Start("channel")
	writeChannelElements(e, ch)

	for i, it := range items {
		e.Start("item")
		e.Quick("title", it.Title)
		e.Quick("link", it.Link)
		e.Quick("description", it.Description)
		if it.GUID != "" {
			e.Quick("guid", it.GUID)
		}
		if e.err != nil {
			return e.err
		}

		if w.ItemElements != nil {
			if err := w.ItemElements(e, i); err != nil {
				return err
			}
		}
		e.End("item")
	}

	e.End("channel")
	e.End("rss")
	if e.err != nil {
		return e.err
	}

	return enc.Close()
}

func writeChannelElements(e *ElementWriter, ch Channel) {
	e.Quick("title", ch.Title)
	e.Quick("link", ch.Link)
	e.Quick("description", ch.Description)

	if ch.FeedURL != "" {
		e.Quick("atom:link", "",
			xml.Attr{Name: xml.Name{Local: "href"}, Value: ch.FeedURL},
			xml.Attr{Name: xml.Name{Local: "rel"}, Value: "self"},
		)
	}
	if ch.Language != "" {
		e.Quick("language", ch.Language)
	}
	if !ch.LastBuildDate.IsZero() {
		e.Quick("lastBuildDate", ch.LastBuildDate.UTC().Format(time.RFC1123Z))
	}
}
