package api

import (
	"bytes"
	"strings"
	"testing"
)

// flushRecorder counts flushes so per-line flushing is observable.
type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestEventStreamWireShapes(t *testing.T) {
	var buf bytes.Buffer
	s := NewEventStream(&buf)

	if err := s.Processing("Analyzing the question..."); err != nil {
		t.Fatal(err)
	}
	if err := s.Delta("수성은 "); err != nil {
		t.Fatal(err)
	}
	if err := s.Failure("Web search failed"); err != nil {
		t.Fatal(err)
	}

	want := `{"status":"processing","message":{"title":"Analyzing the question..."}}
{"status":"streaming","delta":{"content":"수성은 "}}
{"status":"failure","message":{"title":"Web search failed"}}
`
	if buf.String() != want {
		t.Errorf("stream = %q, want %q", buf.String(), want)
	}
}

func TestEventStreamCompletePayload(t *testing.T) {
	var buf bytes.Buffer
	s := NewEventStream(&buf)

	if err := s.Complete(CompleteMessage{
		Content:  "답변 본문",
		Metadata: Metadata{Queries: []string{"수성 온도"}, SubTitles: []string{"개요"}},
	}); err != nil {
		t.Fatal(err)
	}

	line := buf.String()
	for _, want := range []string{
		`"status":"complete"`,
		`"content":"답변 본문"`,
		`"queries":["수성 온도"]`,
		`"sub_titles":["개요"]`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("complete event missing %s: %s", want, line)
		}
	}
}

func TestEventStreamCompleteFillsEmptySlices(t *testing.T) {
	var buf bytes.Buffer
	s := NewEventStream(&buf)

	if err := s.Complete(CompleteMessage{Content: "답"}); err != nil {
		t.Fatal(err)
	}

	line := buf.String()
	// Clients iterate these; null would make them crash.
	if !strings.Contains(line, `"queries":[]`) || !strings.Contains(line, `"sub_titles":[]`) {
		t.Errorf("empty metadata must serialize as arrays: %s", line)
	}
}

func TestEventStreamSingleTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewEventStream(&buf)

	if err := s.Complete(CompleteMessage{Content: "첫 번째"}); err != nil {
		t.Fatal(err)
	}
	// A late panic handler or stage must not produce a second ending.
	if err := s.Failure("Web search failed"); err != nil {
		t.Fatal(err)
	}
	if err := s.Processing("too late"); err != nil {
		t.Fatal(err)
	}

	if !s.Terminated() {
		t.Error("stream should be terminated")
	}
	lines := strings.Count(buf.String(), "\n")
	if lines != 1 {
		t.Errorf("wrote %d events, want exactly 1: %s", lines, buf.String())
	}
	if !strings.Contains(buf.String(), `"complete"`) {
		t.Errorf("the first terminal event must win: %s", buf.String())
	}
}

func TestEventStreamFlushesPerLine(t *testing.T) {
	rec := &flushRecorder{}
	s := NewEventStream(rec)

	s.Processing("Analyzing the question...")
	s.Delta("조각")
	s.Complete(CompleteMessage{})

	if rec.flushes != 3 {
		t.Errorf("flushes = %d, want one per event", rec.flushes)
	}
}
