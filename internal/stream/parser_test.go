package stream

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/lokhin/coursechat/internal/models"
)

func record(chunk string) string {
	return fmt.Sprintf("data: {\"chunk\": %q}\n\n", chunk)
}

func sourcesChunk(payload string) string {
	return models.SourcesStart + payload + models.SourcesEnd
}

// collect feeds the whole input in one call and flushes.
func collect(t *testing.T, input string) []models.Frame {
	t.Helper()
	p := NewParser(nil)
	frames := p.Feed(input)
	frames = append(frames, p.Flush()...)
	return frames
}

func TestParser_TextDeltas(t *testing.T) {
	input := record("Comp") + record("7103 is") + record(" a data mining course.")

	frames := collect(t, input)

	want := []models.Frame{
		models.TextDelta{Text: "Comp"},
		models.TextDelta{Text: "7103 is"},
		models.TextDelta{Text: " a data mining course."},
	}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %#v, want %#v", frames, want)
	}
}

func TestParser_CitationBundle(t *testing.T) {
	payload := `[{"title":"Syllabus","source_url":"https://x/a","relevance_score":0.9,"text":"week 1"}]`
	input := record("answer") + record(sourcesChunk(payload))

	frames := collect(t, input)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	bundle, ok := frames[1].(models.CitationBundle)
	if !ok {
		t.Fatalf("frames[1] = %T, want CitationBundle", frames[1])
	}
	if len(bundle.Citations) != 1 {
		t.Fatalf("got %d citations, want 1", len(bundle.Citations))
	}
	c := bundle.Citations[0]
	if c.SourceURL != "https://x/a" || c.RelevanceScore != 0.9 || c.Title != "Syllabus" {
		t.Errorf("unexpected citation: %+v", c)
	}
}

func TestParser_ChunkBoundaryIndependence(t *testing.T) {
	payload := `[{"title":"Notes","source_url":"https://x/b","relevance_score":0.7}]`
	input := record("hel") + record("lo ") + record(sourcesChunk(payload)) + record("world")

	want := collect(t, input)
	if len(want) != 4 {
		t.Fatalf("reference parse yielded %d frames, want 4", len(want))
	}

	// Splitting the same bytes at every possible boundary must yield an
	// identical frame sequence.
	for cut := 0; cut <= len(input); cut++ {
		p := NewParser(nil)
		var frames []models.Frame
		frames = append(frames, p.Feed(input[:cut])...)
		frames = append(frames, p.Feed(input[cut:])...)
		frames = append(frames, p.Flush()...)

		if !reflect.DeepEqual(frames, want) {
			t.Fatalf("cut at %d: frames = %#v, want %#v", cut, frames, want)
		}
	}
}

func TestParser_ByteAtATime(t *testing.T) {
	input := record("a") + record("b") + record("c")

	p := NewParser(nil)
	var frames []models.Frame
	for i := 0; i < len(input); i++ {
		frames = append(frames, p.Feed(input[i:i+1])...)
	}
	frames = append(frames, p.Flush()...)

	want := []models.Frame{
		models.TextDelta{Text: "a"},
		models.TextDelta{Text: "b"},
		models.TextDelta{Text: "c"},
	}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %#v, want %#v", frames, want)
	}
}

func TestParser_MalformedRecordRecovered(t *testing.T) {
	tests := []struct {
		name string
		bad  string
	}{
		{"invalid json", "data: {not json}\n\n"},
		{"missing prefix", "{\"chunk\":\"x\"}\n\n"},
		{"missing chunk field", "data: {\"other\":\"x\"}\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := record("before") + tt.bad + record("after")

			frames := collect(t, input)

			want := []models.Frame{
				models.TextDelta{Text: "before"},
				models.TextDelta{Text: "after"},
			}
			if !reflect.DeepEqual(frames, want) {
				t.Errorf("frames = %#v, want %#v", frames, want)
			}
		})
	}
}

func TestParser_MalformedCitationPayloadDropped(t *testing.T) {
	input := record("text") + record(sourcesChunk(`[{"broken"`)) + record("more")

	frames := collect(t, input)

	// Only the citation payload is dropped; surrounding records survive.
	want := []models.Frame{
		models.TextDelta{Text: "text"},
		models.TextDelta{Text: "more"},
	}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %#v, want %#v", frames, want)
	}
}

func TestParser_KeepAliveIgnored(t *testing.T) {
	input := record("a") + "\n\n" + "\n\n" + record("") + record("b")

	frames := collect(t, input)

	want := []models.Frame{
		models.TextDelta{Text: "a"},
		models.TextDelta{Text: "b"},
	}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %#v, want %#v", frames, want)
	}
}

func TestParser_DeltaConcatenationReconstructsAnswer(t *testing.T) {
	parts := []string{"The course ", "covers classification,\n", "clustering ", "and association rules."}

	var input string
	var want string
	for _, part := range parts {
		input += record(part)
		want += part
	}

	var got string
	for _, f := range collect(t, input) {
		delta, ok := f.(models.TextDelta)
		if !ok {
			t.Fatalf("unexpected frame type %T", f)
		}
		got += delta.Text
	}

	if got != want {
		t.Errorf("reconstructed answer = %q, want %q", got, want)
	}
}

func TestParser_FlushHandlesUnterminatedRecord(t *testing.T) {
	p := NewParser(nil)

	frames := p.Feed("data: {\"chunk\":\"tail\"}")
	if len(frames) != 0 {
		t.Fatalf("incomplete record emitted early: %#v", frames)
	}

	frames = p.Flush()
	want := []models.Frame{models.TextDelta{Text: "tail"}}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("Flush() = %#v, want %#v", frames, want)
	}

	if extra := p.Flush(); extra != nil {
		t.Errorf("second Flush() = %#v, want nil", extra)
	}
}
