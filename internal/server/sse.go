package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// fitStream writes fit progress as Server-Sent Events. Every event carries an
// increasing id so clients can tell how far a dropped stream got.
type fitStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// newFitStream commits the 200 response; errors after this point travel as events.
func newFitStream(w http.ResponseWriter) (*fitStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &fitStream{w: w, flusher: flusher}, nil
}

func (s *fitStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// fail reports err with the status a plain request would have received.
func (s *fitStream) fail(err error) error {
	return s.send("error", map[string]any{
		"error":  err.Error(),
		"status": HTTPStatus(err),
	})
}

func (s *fitStream) complete(runID uuid.UUID, status string) error {
	data := map[string]string{"status": status}
	if runID != uuid.Nil {
		data["run_id"] = runID.String()
	}
	return s.send("complete", data)
}
