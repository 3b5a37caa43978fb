package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtak/playdeck/internal/app/library"
)

// addForm is the manual-add track form: title, artist, and source URL are
// required, the cover URL is optional. While the form is open all key input
// belongs to it, which also suspends the global transport shortcuts.
type addForm struct {
	inputs  []textinput.Model
	focused int
}

const (
	fieldTitle = iota
	fieldArtist
	fieldURL
	fieldCover
)

func newAddForm() *addForm {
	labels := []string{"Track title", "Artist name", "https://example.com/audio.mp3", "https://example.com/cover.jpg (optional)"}

	inputs := make([]textinput.Model, len(labels))
	for i, placeholder := range labels {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 512
		in.Width = 48
		inputs[i] = in
	}
	inputs[0].Focus()

	return &addForm{inputs: inputs}
}

// Input returns the form contents as the library's validated input value.
func (f *addForm) Input() library.ManualAdd {
	return library.ManualAdd{
		Title:    f.inputs[fieldTitle].Value(),
		Artist:   f.inputs[fieldArtist].Value(),
		URL:      f.inputs[fieldURL].Value(),
		CoverURL: f.inputs[fieldCover].Value(),
	}
}

// Update routes key input to the focused field, cycling focus on tab.
func (f *addForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus((f.focused + 1) % len(f.inputs))
			return nil
		case "shift+tab", "up":
			f.setFocus((f.focused + len(f.inputs) - 1) % len(f.inputs))
			return nil
		}
	}

	cmds := make([]tea.Cmd, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i], cmds[i] = f.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (f *addForm) setFocus(i int) {
	f.inputs[f.focused].Blur()
	f.focused = i
	f.inputs[i].Focus()
}

// View renders the form fields.
func (f *addForm) View(st styles) string {
	labels := []string{"Title", "Artist", "Audio URL", "Cover URL"}

	out := st.Section.Render("Add New Track") + "\n\n"
	for i, in := range f.inputs {
		out += st.Muted.Render(labels[i]) + "\n" + in.View() + "\n"
	}
	out += st.Controls.Render("enter: add track • tab: next field • esc: cancel")
	return out
}
