package api

import (
	"io"
	"net/http"

	"web-search-answer-api/internal/llm"
)

// Stream event statuses. Every NDJSON line carries exactly one.
const (
	statusProcessing = "processing"
	statusStreaming  = "streaming"
	statusComplete   = "complete"
	statusFailure    = "failure"
)

// event is the envelope of one NDJSON line. Processing, complete, and
// failure payloads ride in message; answer deltas ride in delta.
type event struct {
	Status  string      `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Delta   interface{} `json:"delta,omitempty"`
}

type titleMessage struct {
	Title string `json:"title"`
}

type deltaContent struct {
	Content string `json:"content"`
}

// Metadata carries the executed search queries and the answer outline of
// one completed request.
type Metadata struct {
	Queries   []string `json:"queries"`
	SubTitles []string `json:"sub_titles"`
}

// CompleteMessage is the payload of the terminal complete event.
type CompleteMessage struct {
	Content  string           `json:"content"`
	Metadata Metadata         `json:"metadata"`
	Models   []llm.ModelUsage `json:"models"`
}

// EventStream writes newline-delimited JSON events to one client,
// flushing after every line so events arrive as they happen. Complete
// and Failure are terminal: the first one wins and anything after it is
// dropped, so a stream never carries two endings. Events are emitted
// from a single goroutine per request.
type EventStream struct {
	w        io.Writer
	flusher  http.Flusher
	terminal bool
}

// NewEventStream wraps a response writer. Writers that cannot flush
// (buffered test writers) just skip the per-line flush.
func NewEventStream(w io.Writer) *EventStream {
	s := &EventStream{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Terminated reports whether a complete or failure event was written.
func (s *EventStream) Terminated() bool {
	return s.terminal
}

// Processing reports a pipeline stage to the client.
func (s *EventStream) Processing(title string) error {
	return s.emit(event{Status: statusProcessing, Message: titleMessage{Title: title}})
}

// Delta forwards one chunk of the streamed answer. The signature matches
// the answer generator's delta callback.
func (s *EventStream) Delta(content string) error {
	return s.emit(event{Status: statusStreaming, Delta: deltaContent{Content: content}})
}

// Complete ends the stream with the finished answer.
func (s *EventStream) Complete(msg CompleteMessage) error {
	if msg.Metadata.Queries == nil {
		msg.Metadata.Queries = []string{}
	}
	if msg.Metadata.SubTitles == nil {
		msg.Metadata.SubTitles = []string{}
	}
	return s.terminate(event{Status: statusComplete, Message: msg})
}

// Failure ends the stream with a client-facing reason.
func (s *EventStream) Failure(title string) error {
	return s.terminate(event{Status: statusFailure, Message: titleMessage{Title: title}})
}

func (s *EventStream) terminate(e event) error {
	if s.terminal {
		return nil
	}
	err := s.emit(e)
	s.terminal = true
	return err
}

func (s *EventStream) emit(e event) error {
	if s.terminal {
		return nil
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
