// Package dashboard is the terminal view of a fleet: a filterable robot list
// with the add, remove, battery, status and return-to-base controls.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/logger"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/view"
)

// DefaultActionTimeout bounds one store call triggered by a key press.
const DefaultActionTimeout = 5 * time.Second

// RandomAdder is implemented by stores that generate robots themselves, such
// as the remote store, which lets the server pick the id and fields.
type RandomAdder interface {
	AddRandom(ctx context.Context) (model.Robot, error)
}

// Options configures New.
type Options struct {
	Generator     *fleet.Generator
	Logger        logger.Logger
	ActionTimeout time.Duration
	Keys          *KeyMap
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	store   fleet.Store
	proj    *view.Projector
	changes chan struct{}
	gen     *fleet.Generator
	log     logger.Logger
	timeout time.Duration

	view   view.View
	cursor int

	keys   KeyMap
	help   help.Model
	search textinput.Model

	status    string
	statusErr bool
	width     int
	height    int
}

// New builds a dashboard over store starting from the default selection.
func New(store fleet.Store, opts Options) *Model {
	m := &Model{
		store:   store,
		changes: make(chan struct{}, 1),
		gen:     opts.Generator,
		log:     opts.Logger,
		timeout: opts.ActionTimeout,
		keys:    DefaultKeyMap,
		help:    help.New(),
	}
	if m.gen == nil {
		m.gen = fleet.NewGenerator(0)
	}
	if m.log == nil {
		m.log = logger.NopLogger{}
	}
	if m.timeout <= 0 {
		m.timeout = DefaultActionTimeout
	}
	if opts.Keys != nil {
		m.keys = *opts.Keys
	}
	m.search = textinput.New()
	m.search.Placeholder = "search by name or id"
	m.search.Prompt = "/ "
	m.search.CharLimit = 64

	m.proj = view.NewProjector(store, view.DefaultSelection(), func(view.View) { m.signal() })
	m.view = m.proj.Current()
	return m
}

// signal records that the projector has a newer view. Signals coalesce.
func (m *Model) signal() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// Close detaches the dashboard from the store.
func (m *Model) Close() { m.proj.Close() }

// Current returns the derived view on screen.
func (m *Model) Current() view.View { return m.view }

// Selected returns the robot under the cursor.
func (m *Model) Selected() (model.Robot, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Robots) {
		return model.Robot{}, false
	}
	return m.view.Robots[m.cursor], true
}

// Status returns the last action message and whether it reports an error.
func (m *Model) Status() (string, bool) { return m.status, m.statusErr }

func (m *Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

type fleetChangedMsg struct{}

// actionMsg carries the outcome of one store call back to Update.
type actionMsg struct {
	text string
	err  error
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return fleetChangedMsg{}
	}
}

// Run starts the program on the terminal and blocks until the user quits
// or ctx is done.
func Run(ctx context.Context, store fleet.Store, opts Options) error {
	m := New(store, opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
