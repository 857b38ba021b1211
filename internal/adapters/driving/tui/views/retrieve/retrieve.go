// Package retrieve is the TUI screen that lists the chunks nearest a query.
package retrieve

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoRetrievalService is reported when a query is submitted without a
// retrieval service.
var ErrNoRetrievalService = errors.New("retrieval service is required")

// maxTopK bounds the +/- adjustment.
const maxTopK = 50

// chromeHeight is the rows used by the title, input and status bar.
const chromeHeight = 10

// View has two modes: typing a query, and browsing the ranked chunks.
// In browse mode + and - re-run the last query with a larger or smaller
// top k.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	service driving.RetrievalService
	ctx     context.Context

	// topK is the requested result count; 0 defers to the service default.
	topK      int
	lastQuery string

	width, height int
	ready         bool
	err           error
	typing        bool
}

// NewView returns a view in typing mode. Nil styles or key map use the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQueryInput(s, "Query"),
		list:      list.NewResultList(s),
		statusbar: status.NewBar(s, km),
		service:   service,
		ctx:       context.Background(),
		width:     80,
		height:    24,
		typing:    true,
	}
}

// WithContext sets the context retrieval calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, changeView(messages.ViewMenu)
		}
		if v.typing {
			return v, v.onTypingKey(msg)
		}
		return v, v.onBrowseKey(msg)
	case messages.RetrievalCompleted:
		if msg.Err != nil {
			v.fail(msg.Err)
		} else {
			v.show(msg.Results)
		}
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	if !v.typing {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) onTypingKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyEnter {
		v.input, _ = v.input.Update(msg)
		return nil
	}
	query := v.input.Value()
	if query == "" {
		return nil
	}
	return v.submit(query)
}

func (v *View) onBrowseKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.NewQuery):
		v.typing = true
		v.input.SetValue("")
		return v.input.Focus()
	case keymap.Matches(k, v.keymap.More):
		return v.resize(+1)
	case keymap.Matches(k, v.keymap.Fewer):
		return v.resize(-1)
	}
	v.list, _ = v.list.Update(msg)
	return nil
}

// resize changes top k by delta and re-runs the last query.
func (v *View) resize(delta int) tea.Cmd {
	if v.lastQuery == "" {
		return nil
	}
	next := min(max(v.TopK()+delta, 1), maxTopK)
	if next == v.TopK() {
		return nil
	}
	v.topK = next
	return v.submit(v.lastQuery)
}

func (v *View) submit(query string) tea.Cmd {
	v.lastQuery = query
	v.typing = false
	v.input.Blur()
	v.statusbar.SetState(status.StateRetrieving)

	svc, ctx, opts := v.service, v.ctx, domain.RetrieveOptions{TopK: v.topK}
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		results, err := svc.Retrieve(ctx, query, opts)
		return messages.RetrievalCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) show(results []domain.RetrievalResult) {
	v.err = nil
	v.list.SetResults(results)
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(results))
	v.typing = false
	v.input.Blur()
}

// fail records err and returns to typing so the query can be edited.
func (v *View) fail(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.typing = true
	v.input.Focus()
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Retrieve")
	if v.topK > 0 {
		header += "  " + v.styles.Muted.Render(fmt.Sprintf("top %d", v.topK))
	}

	rows := []string{header, "", v.input.View(), ""}
	if v.err != nil {
		rows = append(rows, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	rows = append(rows, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// SetDimensions lays out the children and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-chromeHeight)
	v.statusbar.SetWidth(width)
}

// Reset clears the query, results and top k override.
func (v *View) Reset() {
	v.typing = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.topK = 0
	v.lastQuery = ""
	v.statusbar.Clear()
}

// TopK is the effective result count: the override, or the default.
func (v *View) TopK() int {
	if v.topK > 0 {
		return v.topK
	}
	return domain.DefaultTopK
}

func (v *View) Query() string                     { return v.input.Value() }
func (v *View) SetQuery(query string)             { v.input.SetValue(query) }
func (v *View) Results() []domain.RetrievalResult { return v.list.Results() }
func (v *View) SelectedIndex() int                { return v.list.Selected() }
func (v *View) Err() error                        { return v.err }
func (v *View) Ready() bool                       { return v.ready }
func (v *View) InputFocused() bool                { return v.typing }
func (v *View) Width() int                        { return v.width }
func (v *View) Height() int                       { return v.height }

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}
