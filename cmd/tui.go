// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/luxcube/cubist/pkg/cube"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive cube editor",
	Long: `Edit the cube interactively: move a cursor around the voxel grid, paint
voxels and planes, and push the result to the device.

Keys:
  arrows     move the cursor in the current layer (x/z)
  pgup/pgdn  move between layers (y)
  c          enter a color for the voxel under the cursor
  f          fill the current layer with the entered color
  x          clear the cube to black
  p          push the framebuffer to the device
  q          logout and quit`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

//////////////////////////////////////////////////////////////
// Styles
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	layerTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	layerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginRight(2)

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	offVoxelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type editorModel struct {
	driver   *cube.Driver
	connInfo string

	cx, cy, cz int // cursor position

	paint    cube.Color // last entered color
	hasPaint bool

	input    textinput.Model
	entering bool // color input active

	status   string
	errMsg   string
	quitting bool
}

func newEditorModel(driver *cube.Driver, connInfo string) editorModel {
	input := textinput.New()
	input.Placeholder = "red, ff8000, #00ffcc ..."
	input.CharLimit = 16
	input.Width = 24

	return editorModel{
		driver:   driver,
		connInfo: connInfo,
		input:    input,
		status:   "ready",
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

//////////////////////////////////////////////////////////////
// Update
//////////////////////////////////////////////////////////////

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.entering {
		return m.updateColorInput(keyMsg)
	}

	switch keyMsg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.driver.Logout()
		return m, tea.Quit

	case "left":
		m.cx = clamp(m.cx-1, cube.XSize)
	case "right":
		m.cx = clamp(m.cx+1, cube.XSize)
	case "up":
		m.cz = clamp(m.cz+1, cube.ZSize)
	case "down":
		m.cz = clamp(m.cz-1, cube.ZSize)
	case "pgup":
		m.cy = clamp(m.cy+1, cube.YSize)
	case "pgdown":
		m.cy = clamp(m.cy-1, cube.YSize)

	case "c":
		m.entering = true
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case "f":
		if !m.hasPaint {
			m.errMsg = "no color entered yet (press c first)"
			break
		}
		if err := m.driver.SetPlane(cube.AxisY, m.cy, m.paint); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = fmt.Sprintf("layer y=%d filled with %s", m.cy, m.paint)
			m.errMsg = ""
		}

	case "x":
		m.driver.Clear(cube.RGB(0, 0, 0))
		m.status = "cube cleared"
		m.errMsg = ""

	case "p":
		if err := m.driver.Push(); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = "framebuffer pushed"
			m.errMsg = ""
		}
	}

	return m, nil
}

func (m editorModel) updateColorInput(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "esc":
		m.entering = false
		m.input.Blur()
		return m, nil

	case "enter":
		m.entering = false
		m.input.Blur()

		color, err := cube.ParseColor(strings.TrimSpace(m.input.Value()))
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.paint = color
		m.hasPaint = true

		if err := m.driver.SetPixel(m.cx, m.cy, m.cz, color); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = fmt.Sprintf("voxel (%d,%d,%d) set to %s", m.cx, m.cy, m.cz, color)
			m.errMsg = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

// clamp keeps a cursor coordinate inside [0, extent)
func clamp(v, extent int) int {
	if v < 0 {
		return 0
	}
	if v >= extent {
		return extent - 1
	}
	return v
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m editorModel) View() string {
	if m.quitting {
		return "Logged out.\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Cubist - Cube Editor"))
	sb.WriteString("\n\n")

	// One box per y layer, z rows top to bottom, x columns left to right
	layers := make([]string, 0, cube.YSize)
	for y := 0; y < cube.YSize; y++ {
		var grid strings.Builder
		for z := cube.ZSize - 1; z >= 0; z-- {
			for x := 0; x < cube.XSize; x++ {
				grid.WriteString(m.renderVoxel(x, y, z))
			}
			if z > 0 {
				grid.WriteByte('\n')
			}
		}

		title := layerTitleStyle.Render(fmt.Sprintf(" y=%d ", y))
		if y == m.cy {
			title = layerTitleStyle.Bold(true).Render(fmt.Sprintf("[y=%d]", y))
		}
		layers = append(layers, lipgloss.JoinVertical(lipgloss.Center,
			layerBoxStyle.Render(grid.String()), title))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, layers...))
	sb.WriteString("\n\n")

	if m.entering {
		sb.WriteString(fmt.Sprintf("Color for (%d,%d,%d): %s\n\n", m.cx, m.cy, m.cz, m.input.View()))
	}

	if m.errMsg != "" {
		sb.WriteString(errorStyle.Render("error: "+m.errMsg) + "\n")
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("%s | cursor (%d,%d,%d) | %s | device %s",
		m.connInfo, m.cx, m.cy, m.cz, m.status, m.driver.LastError().Message)))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("arrows/pgup/pgdn move · c color · f fill layer · x clear · p push · q quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (m editorModel) renderVoxel(x, y, z int) string {
	c := m.driver.Buffer().At(x, y, z)

	cell := "··"
	style := offVoxelStyle
	if c != (cube.Color{}) {
		cell = "██"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(c.String()))
	}

	if x == m.cx && y == m.cy && z == m.cz {
		style = style.Background(cursorStyle.GetBackground())
	}
	return style.Render(cell)
}

//////////////////////////////////////////////////////////////
// Entry point
//////////////////////////////////////////////////////////////

func runTui(cmd *cobra.Command, args []string) error {
	driver, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	// Login restores the persisted image, so the editor starts from the
	// last displayed state
	if err := driver.Login(); err != nil {
		return err
	}

	p := tea.NewProgram(newEditorModel(driver, connInfo))
	if _, err := p.Run(); err != nil {
		driver.Logout()
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
