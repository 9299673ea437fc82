// Package opml emits OPML 2.0 subscription lists for resolved feed URLs.
package opml

import (
	"encoding/xml"
	"fmt"
)

// Subscription is one feed in the list. Title may be empty.
type Subscription struct {
	Title   string
	FeedURL string
}

type document struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title string `xml:"title"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Type   string `xml:"type,attr"`
	Text   string `xml:"text,attr"`
	Title  string `xml:"title,attr,omitempty"`
	XMLURL string `xml:"xmlUrl,attr"`
}

// Render serializes the subscriptions as an OPML 2.0 document. Subscriptions
// without a title fall back to the feed URL for the required text attribute.
func Render(title string, subs []Subscription) ([]byte, error) {
	doc := document{
		Version: "2.0",
		Head:    head{Title: title},
	}
	for _, sub := range subs {
		text := sub.Title
		if text == "" {
			text = sub.FeedURL
		}
		doc.Body.Outlines = append(doc.Body.Outlines, outline{
			Type:   "rss",
			Text:   text,
			Title:  sub.Title,
			XMLURL: sub.FeedURL,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal opml: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
