package dashboard

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantummeet/quantummeet/internal/agent"
	"github.com/quantummeet/quantummeet/internal/meeting"
	"github.com/quantummeet/quantummeet/internal/models"
)

type layoutView struct {
	Title string
	Nav   string
	User  *models.User
}

// pager drives the previous/next controls of a list.
type pager struct {
	Page       int
	TotalPages int
	Total      int64
	PrevURL    string
	NextURL    string
}

func (p pager) HasPrev() bool { return p.Page > 1 }
func (p pager) HasNext() bool { return p.Page < p.TotalPages }

func newPager(base string, q url.Values, page, totalPages int, total int64) pager {
	p := pager{Page: page, TotalPages: totalPages, Total: total}
	if p.HasPrev() {
		p.PrevURL = withQuery(base, q, "page", strconv.Itoa(page-1))
	}
	if p.HasNext() {
		p.NextURL = withQuery(base, q, "page", strconv.Itoa(page+1))
	}
	return p
}

// withQuery returns base with q, key set to value. An empty value removes key.
func withQuery(base string, q url.Values, key, value string) string {
	next := url.Values{}
	for k, vs := range q {
		next[k] = append([]string(nil), vs...)
	}
	if value == "" {
		next.Del(key)
	} else {
		next.Set(key, value)
	}
	if enc := next.Encode(); enc != "" {
		return base + "?" + enc
	}
	return base
}

type agentListView struct {
	Items  []agent.Row
	Search string
	Pager  pager
}

// Empty reports whether the current page has nothing to show, whatever the
// total across pages.
func (v agentListView) Empty() bool { return len(v.Items) == 0 }

type agentDetailView struct {
	Agent *agent.Row
}

type meetingListView struct {
	Items     []meeting.Row
	Search    string
	Status    string
	Statuses  []string
	Pager     pager
	NewURL    string
	Dialog    dialogView
	ClearURL  string
	Filtering bool
}

func (v meetingListView) Empty() bool { return len(v.Items) == 0 }

// dialogView is the meeting creation dialog. Open is carried in the query
// string as new=1.
type dialogView struct {
	Open     bool
	CloseURL string
	Agents   []agent.Row
	Name     string
	AgentID  string
	Error    string
}

type meetingDetailView struct {
	Meeting *meeting.Row
}

var templateFuncs = template.FuncMap{
	"timeAgo":        TimeAgo,
	"formatTime":     formatTime,
	"formatDuration": formatDuration,
	"statusLabel":    statusLabel,
	"plural":         plural,
}

// TimeAgo renders t relative to now, e.g. "5m ago".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006 15:04")
}

// formatDuration renders a duration in seconds as "1h 2m 3s". Nil means the
// meeting has not both started and ended.
func formatDuration(secs *float64) string {
	if secs == nil {
		return "No duration"
	}
	d := time.Duration(*secs * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func statusLabel(status string) string {
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func plural(n int64, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
