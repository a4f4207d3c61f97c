package models

import "encoding/xml"

// RSS представляет корневой элемент RSS-документа.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel содержит заголовок и список элементов Item.
type Channel struct {
	Title string `xml:"title"`
	Items []Item `xml:"item"`
}

// Item представляет одну публикацию из RSS-ленты.
type Item struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Link        string `xml:"link"`
}

// Atom представляет корневой элемент Atom-документа.
type Atom struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []AtomEntry `xml:"entry"`
}

// AtomEntry - запись Atom-ленты. Summary пустой у многих лент, тогда берём Content.
type AtomEntry struct {
	Title   string     `xml:"title"`
	Summary string     `xml:"summary"`
	Content string     `xml:"content"`
	Updated string     `xml:"updated"`
	Links   []AtomLink `xml:"link"`
}

type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Feed - лента, приведённая к единому виду независимо от формата.
type Feed struct {
	URL   string
	Title string
	Items []NewsItem
}
