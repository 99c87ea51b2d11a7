package dashboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantummeet/quantummeet/internal/agent"
	"github.com/quantummeet/quantummeet/internal/meeting"
	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
)

// pageInputFromQuery reads page and search from the query string. A page
// that is not a number is passed on as 0 so validation rejects it.
func pageInputFromQuery(c *gin.Context) rpc.PageInput {
	var in rpc.PageInput
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		in.Page = &n
	}
	if v := c.Query("search"); v != "" {
		in.Search = &v
	}
	return in
}

func (s *server) handleAgentList(c *gin.Context) {
	user := pageUser(c)
	in := pageInputFromQuery(c)
	q := c.Request.URL.Query()

	s.renderSuspense(c, http.StatusOK,
		layoutView{Title: "Agents", Nav: "agents", User: user},
		suspense{Loading: "Loading Agents", Error: "Error Loading Agents"},
		func(ctx context.Context, st *dehydrated) (string, any, error) {
			res, err := prefetch(s, st, "agents.getMany", in, func() (*rpc.Page[agent.Row], error) {
				return agent.GetMany(ctx, s.db, user.ID, in)
			})
			if err != nil {
				return "", nil, err
			}
			p, _ := in.Resolve()
			return "agents_body", agentListView{
				Items:  res.Items,
				Search: p.Search,
				Pager:  newPager("/agents", q, p.Page, res.TotalPages, res.Total),
			}, nil
		})
}

func (s *server) handleAgentDetail(c *gin.Context) {
	user := pageUser(c)
	in := agent.GetOneInput{ID: c.Param("id")}

	s.renderSuspense(c, http.StatusOK,
		layoutView{Title: "Agent", Nav: "agents", User: user},
		suspense{Loading: "Loading Agent", Error: "Error Loading Agent"},
		func(ctx context.Context, st *dehydrated) (string, any, error) {
			row, err := prefetch(s, st, "agents.getOne", in, func() (*agent.Row, error) {
				return agent.GetOne(ctx, s.db, user.ID, in)
			})
			if err != nil {
				return "", nil, err
			}
			return "agent_body", agentDetailView{Agent: row}, nil
		})
}

func (s *server) handleMeetingList(c *gin.Context) {
	s.renderMeetingList(c, http.StatusOK, dialogView{Open: c.Query("new") == "1"})
}

// handleMeetingCreate handles the creation dialog's form. Success opens the
// new meeting; failure re-renders the list with the dialog still open.
func (s *server) handleMeetingCreate(c *gin.Context) {
	user := pageUser(c)
	in := meeting.CreateInput{Name: c.PostForm("name"), AgentID: c.PostForm("agentId")}

	row, err := meeting.Create(c.Request.Context(), s.db, user.ID, in)
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/meetings/"+row.ID)
		return
	}
	shape := s.errorShape("meetings.create", err)
	s.renderMeetingList(c, shape.HTTPStatus, dialogView{
		Open:    true,
		Name:    in.Name,
		AgentID: in.AgentID,
		Error:   shape.Message,
	})
}

func (s *server) renderMeetingList(c *gin.Context, status int, dialog dialogView) {
	user := pageUser(c)
	q := c.Request.URL.Query()
	in := meeting.ListInput{PageInput: pageInputFromQuery(c)}
	if v := c.Query("status"); v != "" {
		in.Status = &v
	}
	if v := c.Query("agentId"); v != "" {
		in.AgentID = &v
	}
	dialog.CloseURL = withQuery("/meetings", q, "new", "")

	s.renderSuspense(c, status,
		layoutView{Title: "Meetings", Nav: "meetings", User: user},
		suspense{Loading: "Loading Meetings", Error: "Error Loading Meetings"},
		func(ctx context.Context, st *dehydrated) (string, any, error) {
			res, err := prefetch(s, st, "meetings.getMany", in, func() (*rpc.Page[meeting.Row], error) {
				return meeting.GetMany(ctx, s.db, user.ID, in)
			})
			if err != nil {
				return "", nil, err
			}
			if dialog.Open {
				agentsIn := rpc.NewPageInput(1, rpc.MaxPageSize, "")
				agents, err := prefetch(s, st, "agents.getMany", agentsIn, func() (*rpc.Page[agent.Row], error) {
					return agent.GetMany(ctx, s.db, user.ID, agentsIn)
				})
				if err != nil {
					return "", nil, err
				}
				dialog.Agents = agents.Items
			}

			p, _ := in.PageInput.Resolve()
			v := meetingListView{
				Items:    res.Items,
				Search:   p.Search,
				Statuses: models.MeetingStatuses,
				Pager:    newPager("/meetings", q, p.Page, res.TotalPages, res.Total),
				NewURL:   withQuery("/meetings", q, "new", "1"),
				Dialog:   dialog,
				ClearURL: "/meetings",
			}
			if in.Status != nil {
				v.Status = *in.Status
			}
			v.Filtering = v.Search != "" || v.Status != "" || in.AgentID != nil
			return "meetings_body", v, nil
		})
}

func (s *server) handleMeetingDetail(c *gin.Context) {
	user := pageUser(c)
	in := meeting.GetOneInput{ID: c.Param("id")}

	s.renderSuspense(c, http.StatusOK,
		layoutView{Title: "Meeting", Nav: "meetings", User: user},
		suspense{Loading: "Loading Meeting", Error: "Error Loading Meeting"},
		func(ctx context.Context, st *dehydrated) (string, any, error) {
			row, err := prefetch(s, st, "meetings.getOne", in, func() (*meeting.Row, error) {
				return s.getMeeting(ctx, user.ID, in)
			})
			if err != nil {
				return "", nil, err
			}
			return "meeting_body", meetingDetailView{Meeting: row}, nil
		})
}
