package rss_test

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podforge/internal/config"
	"podforge/internal/library"
	"podforge/internal/rss"
)

var testPodcast = config.Podcast{
	Title:       "Podforge Daily",
	Description: "Daily episodes.",
	SiteURL:     "https://pod.example.com",
	Author:      "The Hosts",
	Email:       "hosts@example.com",
}

func testEpisodes() []library.Episode {
	published := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []library.Episode{
		{
			Number:      2,
			Title:       "Second",
			Description: "Ep two & friends",
			AudioURL:    "https://pod.example.com/audio/2.wav",
			SizeBytes:   2048,
			PublishedAt: published.Add(24 * time.Hour),
		},
		{
			Number:      1,
			Title:       "First",
			Description: "Ep one",
			AudioURL:    "https://pod.example.com/audio/1.wav",
			SizeBytes:   1024,
			PublishedAt: published,
		},
	}
}

func TestBuildProducesParseableFeed(t *testing.T) {
	data, err := rss.Build(testPodcast, testEpisodes(), time.Now())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	var doc struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title     string `xml:"title"`
				GUID      string `xml:"guid"`
				Enclosure struct {
					URL    string `xml:"url,attr"`
					Length int64  `xml:"length,attr"`
				} `xml:"enclosure"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("feed does not parse: %v", err)
	}
	if doc.Channel.Title != "Podforge Daily" {
		t.Fatalf("unexpected channel title: %q", doc.Channel.Title)
	}
	if len(doc.Channel.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.Channel.Items))
	}
	if doc.Channel.Items[0].Title != "Episode 2: Second" {
		t.Fatalf("unexpected item title: %q", doc.Channel.Items[0].Title)
	}
	if doc.Channel.Items[0].Enclosure.Length != 2048 {
		t.Fatalf("unexpected enclosure length: %d", doc.Channel.Items[0].Enclosure.Length)
	}
}

func TestBuildEscapesMarkup(t *testing.T) {
	data, err := rss.Build(testPodcast, testEpisodes(), time.Now())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if strings.Contains(string(data), "Ep two & friends") {
		t.Fatal("ampersand not escaped")
	}
	if !strings.Contains(string(data), "Ep two &amp; friends") {
		t.Fatalf("expected escaped description in:\n%s", data)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := rss.WriteFile(path, testPodcast, testEpisodes()); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Fatal("expected XML header")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}
