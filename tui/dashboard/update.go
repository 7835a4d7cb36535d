package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/core/view"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case fleetChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case actionMsg:
		m.refresh()
		if msg.err != nil {
			m.status, m.statusErr = msg.err.Error(), true
			m.log.Warnf("%s: %v", msg.text, msg.err)
		} else {
			m.status, m.statusErr = msg.text, false
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	sel := m.proj.Selection()
	sel.Mode = view.ModeName
	sel.Query = m.search.Value()
	m.setSelection(sel)
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Robots)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Mode):
		sel := m.proj.Selection()
		if sel.Mode == view.ModeName {
			sel.Mode = view.ModeStatus
		} else {
			sel.Mode = view.ModeName
		}
		m.setSelection(sel)

	case key.Matches(msg, m.keys.Filter):
		sel := m.proj.Selection()
		sel.Mode = view.ModeStatus
		sel.Status = view.NextStatusFilter(sel.Status)
		m.setSelection(sel)

	case key.Matches(msg, m.keys.Search):
		sel := m.proj.Selection()
		sel.Mode = view.ModeName
		m.setSelection(sel)
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Add):
		return m, m.addRobot()

	case key.Matches(msg, m.keys.Remove):
		return m, m.run("remove last", func(ctx context.Context) (string, error) {
			r, removed, err := m.store.RemoveLast(ctx)
			switch {
			case err != nil:
				return "", err
			case !removed:
				return "fleet is empty", nil
			}
			return fmt.Sprintf("removed %s", r.ID), nil
		})

	case key.Matches(msg, m.keys.BatteryUp):
		return m, m.battery(policy.Step)

	case key.Matches(msg, m.keys.BatteryDown):
		return m, m.battery(-policy.Step)

	case key.Matches(msg, m.keys.Cycle):
		r, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, m.run("cycle status", func(ctx context.Context) (string, error) {
			got, err := m.store.CycleStatus(ctx, r.ID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s is now %s", got.ID, got.Status), nil
		})

	case key.Matches(msg, m.keys.Return):
		r, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, m.run("return to base", func(ctx context.Context) (string, error) {
			got, tr, err := m.store.ReturnToBase(ctx, r.ID)
			if err != nil {
				return "", err
			}
			switch tr {
			case policy.Applied:
				return fmt.Sprintf("%s returning to base", got.ID), nil
			case policy.AlreadyReturning:
				return fmt.Sprintf("%s is already returning", got.ID), nil
			default:
				return fmt.Sprintf("%s cannot return to base while %s", got.ID, got.Status), nil
			}
		})
	}
	return m, nil
}

func (m *Model) addRobot() tea.Cmd {
	return m.run("add robot", func(ctx context.Context) (string, error) {
		var (
			r   model.Robot
			err error
		)
		if ra, ok := m.store.(RandomAdder); ok {
			r, err = ra.AddRandom(ctx)
		} else {
			r, err = m.store.Add(ctx, m.gen.NewInput(len(m.store.Snapshot())+1))
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("added %s (%s)", r.ID, r.Name), nil
	})
}

// battery changes the selected robot's level by delta. Presses that cannot
// change the level are ignored, like a disabled button.
func (m *Model) battery(delta int) tea.Cmd {
	r, ok := m.Selected()
	if !ok {
		return nil
	}
	if (delta > 0 && !policy.CanIncrement(r.BatteryLevel)) || (delta < 0 && !policy.CanDecrement(r.BatteryLevel)) {
		return nil
	}
	return m.run("battery", func(ctx context.Context) (string, error) {
		got, err := m.store.UpdateBattery(ctx, r.ID, policy.Delta(delta))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s battery %d%%", got.ID, got.BatteryLevel), nil
	})
}

// run wraps a store call into a command bounded by the action timeout.
func (m *Model) run(action string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := fn(ctx)
		if err != nil {
			return actionMsg{text: action, err: fmt.Errorf("%s: %w", action, err)}
		}
		return actionMsg{text: text}
	}
}

func (m *Model) setSelection(sel view.Selection) {
	m.view = m.proj.SetSelection(sel)
	m.clampCursor()
}

func (m *Model) refresh() {
	m.view = m.proj.Current()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.Robots) {
		m.cursor = len(m.view.Robots) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
