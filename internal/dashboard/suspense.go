package dashboard

import (
	"context"
	"encoding/json"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/quantummeet/quantummeet/internal/rpc"
)

// suspense names the fallbacks shown while a page's data loads and when it
// fails.
type suspense struct {
	Loading string
	Error   string
}

// dehydrated is the prefetched query state embedded in every page so a
// client can pick up where the server left off.
type dehydrated struct {
	Queries []dehydratedQuery `json:"queries"`
}

type dehydratedQuery struct {
	Key   string     `json:"key"`
	Path  string     `json:"path"`
	Input any        `json:"input"`
	State queryState `json:"state"`
}

type queryState struct {
	Status string      `json:"status"`
	Data   any         `json:"data,omitempty"`
	Error  *errorShape `json:"error,omitempty"`
}

// queryKey identifies a query by its path and JSON input.
func queryKey(path string, input any) string {
	b, err := json.Marshal(input)
	if err != nil {
		return path
	}
	return path + ":" + string(b)
}

// prefetch runs fn and records its outcome under path and input.
func prefetch[O any](s *server, st *dehydrated, path string, input any, fn func() (O, error)) (O, error) {
	out, err := fn()
	q := dehydratedQuery{Key: queryKey(path, input), Path: path, Input: input}
	if err != nil {
		shape := s.errorShape(path, err)
		q.State = queryState{Status: "error", Error: &shape}
	} else {
		q.State = queryState{Status: "success", Data: out}
	}
	st.Queries = append(st.Queries, q)
	return out, err
}

type errorView struct {
	Title   string
	Message string
	Code    rpc.Code
}

type tailView struct {
	Dehydrated template.JS
}

// loader fetches a page's data and names the template that renders it.
type loader func(ctx context.Context, st *dehydrated) (name string, data any, err error)

// renderSuspense streams a page: the shell and loading fallback are flushed
// first, then the resolved content or the error fallback replaces them.
func (s *server) renderSuspense(c *gin.Context, status int, layout layoutView, fb suspense, load loader) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(status)

	w := c.Writer
	if !s.execute(w, "head", layout) {
		return
	}
	s.execute(w, "loading", fb)
	w.Flush()

	st := &dehydrated{Queries: []dehydratedQuery{}}
	name, data, err := load(c.Request.Context(), st)
	if err != nil {
		e := rpc.From(err)
		name, data = "error_state", errorView{Title: fb.Error, Message: e.Message, Code: e.Code}
	}

	s.execute(w, "resolved", nil)
	s.execute(w, name, data)

	state, jerr := json.Marshal(st)
	if jerr != nil {
		s.log.WithError(jerr).Error("dashboard: encode dehydrated state")
		state = []byte(emptyDehydrated)
	}
	s.execute(w, "tail", tailView{Dehydrated: template.JS(state)})
	w.Flush()
}

func (s *server) execute(w gin.ResponseWriter, name string, data any) bool {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.WithError(err).WithField("template", name).Error("dashboard: render")
		return false
	}
	return true
}
