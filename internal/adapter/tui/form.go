package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label  string
	value  string
	secret bool
}

type form struct {
	fields []field
	focus  int
}

func newForm(fields ...field) form {
	return form{fields: fields}
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.fields[i].value)
}

// edit applies a typing key to the focused field and reports whether the key
// was consumed.
func (f *form) edit(msg tea.KeyMsg) bool {
	if f.focus < 0 || f.focus >= len(f.fields) {
		return false
	}
	fl := &f.fields[f.focus]
	switch msg.Type {
	case tea.KeyRunes:
		fl.value += string(msg.Runes)
	case tea.KeySpace:
		fl.value += " "
	case tea.KeyBackspace:
		if r := []rune(fl.value); len(r) > 0 {
			fl.value = string(r[:len(r)-1])
		}
	default:
		return false
	}
	return true
}

func (f *form) render(b *strings.Builder, offset, focus int) {
	for i, fl := range f.fields {
		marker := " "
		if i+offset == focus {
			marker = ">"
		}
		v := fl.value
		if fl.secret {
			v = strings.Repeat("*", len([]rune(v)))
		}
		b.WriteString(" " + marker + " " + fl.label + ": " + v + "\n")
	}
}
