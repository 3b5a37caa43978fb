package tui

import (
	"fmt"
	"strings"
	"time"
)

// View renders the whole screen: player bar, playlist, queue, and footer.
func (m *Model) View() string {
	st := newStyles(m.state.DarkMode)

	var b strings.Builder
	b.WriteString(st.Title.Render("playdeck"))
	b.WriteString("\n")

	if m.form != nil {
		b.WriteString(m.form.View(st))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.playerBar(st))
	b.WriteString("\n\n")
	b.WriteString(m.playlistView(st))

	if len(m.state.Queue) > 0 {
		b.WriteString("\n")
		b.WriteString(m.queueView(st))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(st.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(st.Controls.Render(
		"space: play/pause • ←/→: seek • ↑/↓: volume • n/p: skip • enter: select\n" +
			"a: queue • u: unqueue • d: delete • s: shuffle • r: repeat • t: theme • m: add • q: quit"))
	b.WriteString("\n")
	return b.String()
}

// playerBar renders the now-playing line, the progress bar, and the flags.
func (m *Model) playerBar(st styles) string {
	var b strings.Builder

	if t := m.state.CurrentTrack; t != nil {
		verb := "Paused"
		if m.state.Playing {
			verb = "Playing"
		}
		b.WriteString(st.Section.Render(verb+": ") + st.Current.Render(t.Title) + st.Muted.Render(" by "+t.Artist))
	} else {
		b.WriteString(st.Muted.Render("Nothing selected"))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s %s",
		st.Muted.Render(formatDuration(m.engine.Position())),
		m.progressBar.View(),
		st.Muted.Render(formatDuration(m.engine.Duration())),
	))
	b.WriteString("\n")

	b.WriteString(st.Muted.Render(fmt.Sprintf("vol %3.0f%%", m.state.Volume*100)))
	b.WriteString("  " + flag(st, "shuffle", m.state.Shuffled))
	b.WriteString("  " + st.FlagOn.Render("repeat: "+m.state.Repeat.String()))
	return b.String()
}

// playlistView renders the playlist with cursor and now-playing markers.
func (m *Model) playlistView(st styles) string {
	var b strings.Builder
	b.WriteString(st.Section.Render(fmt.Sprintf("Playlist (%d)", len(m.state.Playlist))))
	b.WriteString("\n")

	if len(m.state.Playlist) == 0 {
		b.WriteString(st.Muted.Render("  empty; press m to add a track"))
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range m.state.Playlist {
		cursor := "  "
		if i == m.cursor {
			cursor = st.Cursor.Render("> ")
		}

		line := fmt.Sprintf("%s %s %s", t.Title, st.Muted.Render("· "+t.Artist), st.Muted.Render(formatDuration(durationOf(t.Duration))))
		if m.state.CurrentTrack != nil && m.state.CurrentTrack.ID == t.ID {
			line = st.Current.Render("♪ ") + line
		} else {
			line = "  " + line
		}

		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

// queueView renders pending queue entries in play order.
func (m *Model) queueView(st styles) string {
	var b strings.Builder
	b.WriteString(st.Section.Render(fmt.Sprintf("Up Next (%d)", len(m.state.Queue))))
	b.WriteString("\n")
	for i, t := range m.state.Queue {
		b.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, st.Item.Render(t.Title), st.Muted.Render("· "+t.Artist)))
	}
	return b.String()
}

func flag(st styles, name string, on bool) string {
	if on {
		return st.FlagOn.Render(name)
	}
	return st.Muted.Render(name)
}

func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// formatDuration renders m:ss, or h:mm:ss past the hour.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
