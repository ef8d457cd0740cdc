package ffprobe

import "testing"

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "duration": "5400.100000", "channels": 2, "sample_rate": "44100"}
  ],
  "chapters": [
    {"id": 0, "start_time": "0.000000", "end_time": "1800.500000", "tags": {"title": "Chapter One"}},
    {"id": 1, "start_time": "1800.500000", "end_time": "5400.100000", "tags": {"title": "Chapter Two"}}
  ],
  "format": {
    "filename": "book.m4b",
    "nb_streams": 1,
    "duration": "5400.100000",
    "size": "123456789",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "tags": {"title": "A Book"}
  }
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.DurationSeconds(); got != 5400.1 {
		t.Errorf("DurationSeconds = %v, want 5400.1", got)
	}
	if got := result.AudioStreamCount(); got != 1 {
		t.Errorf("AudioStreamCount = %d, want 1", got)
	}
	if got := result.Title(); got != "A Book" {
		t.Errorf("Title = %q, want %q", got, "A Book")
	}
	if len(result.Chapters) != 2 {
		t.Fatalf("Chapters = %d, want 2", len(result.Chapters))
	}
	first := result.Chapters[0]
	if first.Title() != "Chapter One" {
		t.Errorf("chapter title = %q", first.Title())
	}
	if first.StartSeconds() != 0 || first.EndSeconds() != 1800.5 {
		t.Errorf("chapter bounds = [%v, %v]", first.StartSeconds(), first.EndSeconds())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseFloatEmptyAndBad(t *testing.T) {
	if parseFloat("") != 0 {
		t.Error("empty string should parse to 0")
	}
	if parseFloat("n/a") != 0 {
		t.Error("bad value should parse to 0")
	}
}
