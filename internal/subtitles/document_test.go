package subtitles_test

import (
	"errors"
	"strings"
	"testing"

	"vidpipe/internal/services"
	"vidpipe/internal/subtitles"
)

func TestBuildDropsEmptySegmentsWithoutGaps(t *testing.T) {
	segments := []subtitles.Segment{
		{Start: 0, End: 1, Text: "hi"},
		{Start: 1, End: 2, Text: ""},
		{Start: 2, End: 3, Text: "bye"},
	}

	doc, err := subtitles.Build(segments, subtitles.FormatSRT)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Cues[1].Index != 2 || doc.Cues[1].Text != "bye" {
		t.Fatalf("unexpected second cue %+v", doc.Cues[1])
	}

	want := "1\n00:00:00,000 --> 00:00:01,000\nhi\n\n" +
		"2\n00:00:02,000 --> 00:00:03,000\nbye\n\n"
	if got := doc.String(); got != want {
		t.Fatalf("unexpected document:\n%q\nwant\n%q", got, want)
	}
}

func TestBuildTrimsAndStripsCarriageReturns(t *testing.T) {
	segments := []subtitles.Segment{
		{Start: 0, End: 1, Text: "  line one\r\nline two \r"},
		{Start: 1, End: 2, Text: " \r\n "},
	}
	doc, err := subtitles.Build(segments, subtitles.FormatSRT)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(doc.Cues) != 1 {
		t.Fatalf("expected whitespace-only segment to be dropped, got %d cues", len(doc.Cues))
	}
	if doc.Cues[0].Text != "line one\nline two" {
		t.Fatalf("unexpected text %q", doc.Cues[0].Text)
	}
	if strings.Contains(doc.String(), "\r") {
		t.Fatal("document must not contain carriage returns")
	}
}

func TestBuildKeepsOverlappingSegmentsInCallerOrder(t *testing.T) {
	segments := []subtitles.Segment{
		{Start: 5, End: 7, Text: "later"},
		{Start: 1, End: 6, Text: "earlier"},
	}
	doc, err := subtitles.Build(segments, subtitles.FormatSRT)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if doc.Cues[0].Text != "later" || doc.Cues[1].Text != "earlier" {
		t.Fatalf("cue order changed: %+v", doc.Cues)
	}
}

func TestBuildAllEmptyFails(t *testing.T) {
	_, err := subtitles.Build([]subtitles.Segment{{Start: 0, End: 1, Text: "  "}, {Start: 1, End: 2}}, subtitles.FormatSRT)
	if !errors.Is(err, services.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := subtitles.Build(nil, subtitles.FormatSRT); !errors.Is(err, services.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument for nil input, got %v", err)
	}
}

func TestBuildVTT(t *testing.T) {
	doc, err := subtitles.Build([]subtitles.Segment{{Start: 2.5, End: 4, Text: "world"}}, subtitles.FormatVTT)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	want := "WEBVTT\n\n1\n00:00:02.500 --> 00:00:04.000\nworld\n\n"
	if got := doc.String(); got != want {
		t.Fatalf("unexpected vtt %q", got)
	}
}

func TestBuildNormalizesToNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	doc, err := subtitles.Build([]subtitles.Segment{{Start: 0, End: 1, Text: decomposed}}, subtitles.FormatSRT)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if doc.Cues[0].Text != "Caf\u00e9" {
		t.Fatalf("expected composed text, got %q", doc.Cues[0].Text)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := subtitles.ParseFormat(""); err != nil || f != subtitles.FormatSRT {
		t.Fatalf("expected srt default, got %q %v", f, err)
	}
	if f, err := subtitles.ParseFormat("VTT"); err != nil || f != subtitles.FormatVTT {
		t.Fatalf("expected vtt, got %q %v", f, err)
	}
	if _, err := subtitles.ParseFormat("ass"); !errors.Is(err, services.ErrInputInvalid) {
		t.Fatalf("expected input invalid, got %v", err)
	}
}

func TestJoinText(t *testing.T) {
	got := subtitles.JoinText([]subtitles.Segment{{Text: " hello "}, {Text: ""}, {Text: "world"}})
	if got != "hello world" {
		t.Fatalf("unexpected transcript %q", got)
	}
}
