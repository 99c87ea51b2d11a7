package dashboard

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/quantummeet/quantummeet/internal/agent"
	"github.com/quantummeet/quantummeet/internal/meeting"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"gorm.io/gorm"
)

type procKind int

const (
	kindQuery procKind = iota
	kindMutation
)

func (k procKind) String() string {
	if k == kindMutation {
		return "mutation"
	}
	return "query"
}

// procedure is one callable RPC path. call decodes raw JSON input itself so
// the registry can hold procedures of any input and output type.
type procedure struct {
	kind procKind
	call func(ctx context.Context, userID string, raw []byte) (any, error)
}

type handlerFunc[I, O any] func(ctx context.Context, userID string, in I) (O, error)

func query[I, O any](fn handlerFunc[I, O]) procedure {
	return procedure{kind: kindQuery, call: decoded(fn)}
}

func mutation[I, O any](fn handlerFunc[I, O]) procedure {
	return procedure{kind: kindMutation, call: decoded(fn)}
}

func decoded[I, O any](fn handlerFunc[I, O]) func(context.Context, string, []byte) (any, error) {
	return func(ctx context.Context, userID string, raw []byte) (any, error) {
		var in I
		if err := decodeInput(raw, &in); err != nil {
			return nil, err
		}
		out, err := fn(ctx, userID, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// withDB binds a procedure implementation to the shared connection.
func withDB[I, O any](db *gorm.DB, fn func(context.Context, *gorm.DB, string, I) (O, error)) handlerFunc[I, O] {
	return func(ctx context.Context, userID string, in I) (O, error) {
		return fn(ctx, db, userID, in)
	}
}

// decodeInput unmarshals raw into dst. An absent input leaves dst zero.
func decodeInput(raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := binding.JSON.BindBody(raw, dst); err != nil {
		return rpc.Errorf(rpc.CodeBadRequest, "Invalid input: %v", err)
	}
	return nil
}

func (s *server) procedures() map[string]procedure {
	return map[string]procedure{
		"agents.create":  mutation(withDB(s.db, agent.Create)),
		"agents.getOne":  query(withDB(s.db, agent.GetOne)),
		"agents.getMany": query(withDB(s.db, agent.GetMany)),
		"agents.update":  mutation(withDB(s.db, agent.Update)),

		"meetings.create":  mutation(withDB(s.db, meeting.Create)),
		"meetings.getMany": query(withDB(s.db, meeting.GetMany)),
		"meetings.getOne":  query(s.getMeeting),
		"meetings.update":  mutation(withDB(s.db, meeting.Update)),
	}
}

func (s *server) getMeeting(ctx context.Context, userID string, in meeting.GetOneInput) (*meeting.Row, error) {
	return meeting.GetOne(ctx, s.db, userID, in, meeting.WithDelay(s.getOneDelay))
}

type errorShape struct {
	Code       rpc.Code `json:"code"`
	Message    string   `json:"message"`
	HTTPStatus int      `json:"httpStatus"`
	Path       string   `json:"path"`
}

// handleRPC serves GET /api/rpc/<path>?input=<json> for queries and
// POST /api/rpc/<path> with a JSON body for mutations.
func (s *server) handleRPC(c *gin.Context) {
	path := c.Param("path")
	proc, ok := s.procs[path]
	if !ok {
		s.writeRPCError(c, path, rpc.Errorf(rpc.CodeNotFound, "No procedure found on path %q", path))
		return
	}

	want := http.MethodGet
	if proc.kind == kindMutation {
		want = http.MethodPost
	}
	if c.Request.Method != want {
		s.writeRPCError(c, path, rpc.Errorf(rpc.CodeMethodNotSupported,
			"Unsupported %s-request to %s procedure at path %q", c.Request.Method, proc.kind, path))
		return
	}

	user, err := s.currentUser(c)
	if err != nil {
		s.writeRPCError(c, path, err)
		return
	}

	var raw []byte
	if proc.kind == kindQuery {
		raw = []byte(c.Query("input"))
	} else if raw, err = c.GetRawData(); err != nil {
		s.writeRPCError(c, path, rpc.Errorf(rpc.CodeBadRequest, "Invalid input: %v", err))
		return
	}

	out, err := proc.call(c.Request.Context(), user.ID, raw)
	if err != nil {
		s.writeRPCError(c, path, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"data": out}})
}

func (s *server) writeRPCError(c *gin.Context, path string, err error) {
	shape := s.errorShape(path, err)
	c.JSON(shape.HTTPStatus, gin.H{"error": shape})
}

// errorShape converts err to its wire form. Internal causes are logged and
// never sent.
func (s *server) errorShape(path string, err error) errorShape {
	e := rpc.From(err)
	if e.Code == rpc.CodeInternal {
		s.log.WithError(err).WithField("path", path).Error("rpc: internal error")
	}
	return errorShape{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.Code.HTTPStatus(),
		Path:       path,
	}
}
