// Package rss renders the podcast feed from the episode library.
//
// The feed is rebuilt from scratch on every publish via structured XML
// construction, so concurrent episode publishes can never splice a corrupt
// document the way in-place text patching could.
package rss

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"podforge/internal/config"
	"podforge/internal/library"
)

type rssDocument struct {
	XMLName  xml.Name `xml:"rss"`
	Version  string   `xml:"version,attr"`
	ItunesNS string   `xml:"xmlns:itunes,attr"`
	Channel  channel  `xml:"channel"`
}

type channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link,omitempty"`
	Description   string `xml:"description"`
	Language      string `xml:"language"`
	LastBuildDate string `xml:"lastBuildDate"`
	Author        string `xml:"managingEditor,omitempty"`
	ItunesAuthor  string `xml:"itunes:author,omitempty"`
	Items         []item `xml:"item"`
}

type item struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	GUID        guid      `xml:"guid"`
	PubDate     string    `xml:"pubDate"`
	Duration    string    `xml:"itunes:duration,omitempty"`
	Enclosure   enclosure `xml:"enclosure"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Build renders the complete feed document for the given episodes, which are
// expected newest first.
func Build(podcast config.Podcast, episodes []library.Episode, now time.Time) ([]byte, error) {
	doc := rssDocument{
		Version:  "2.0",
		ItunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: channel{
			Title:         podcast.Title,
			Link:          podcast.SiteURL,
			Description:   podcast.Description,
			Language:      "en-us",
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
		},
	}
	if podcast.Email != "" {
		doc.Channel.Author = fmt.Sprintf("%s (%s)", podcast.Email, podcast.Author)
	}
	doc.Channel.ItunesAuthor = podcast.Author

	for _, ep := range episodes {
		doc.Channel.Items = append(doc.Channel.Items, item{
			Title:       fmt.Sprintf("Episode %d: %s", ep.Number, ep.Title),
			Description: ep.Description,
			GUID:        guid{IsPermaLink: false, Value: fmt.Sprintf("podforge-episode-%d", ep.Number)},
			PubDate:     ep.PublishedAt.UTC().Format(time.RFC1123Z),
			Duration:    formatItunesDuration(ep.Duration),
			Enclosure: enclosure{
				URL:    ep.AudioURL,
				Length: ep.SizeBytes,
				Type:   "audio/wav",
			},
		})
	}

	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}

func formatItunesDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// WriteFile renders the feed and writes it atomically next to the episodes.
func WriteFile(path string, podcast config.Podcast, episodes []library.Episode) error {
	data, err := Build(podcast, episodes, time.Now())
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
