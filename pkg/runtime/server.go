package runtime

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// Handler returns the HTTP surface of the runtime: the invocation
// endpoint, its streaming counterpart and a liveness probe.
func (r *Runtime) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /invocations", r.handleInvoke)
	mux.HandleFunc("/invocations/stream", r.handleInvokeStream)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (r *Runtime) handleInvoke(w http.ResponseWriter, req *http.Request) {
	var p Payload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	res := r.Invoke(req.Context(), p)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		r.log.ErrorContext(req.Context(), "write invocation response", "error", err)
	}
}

// handleInvokeStream upgrades to a websocket, reads a single invocation
// payload and writes each stream chunk as a text message until the run
// completes.
func (r *Runtime) handleInvokeStream(w http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(w, req, nil)
	if err != nil {
		r.log.ErrorContext(req.Context(), "websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := req.Context()

	var p Payload
	if _, data, err := conn.Read(ctx); err != nil {
		return
	} else if err := json.Unmarshal(data, &p); err != nil {
		_ = conn.Write(ctx, websocket.MessageText, []byte(errorChunk("invalid JSON payload")))
		_ = conn.Close(websocket.StatusUnsupportedData, "invalid JSON payload")
		return
	}

	// Abandon the agent run as soon as the stream cannot make progress.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for chunk := range r.InvokeStream(ctx, p) {
		if err := conn.Write(ctx, websocket.MessageText, []byte(chunk)); err != nil {
			return
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
}
