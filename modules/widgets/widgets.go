// Package widgets is a small display-less widget toolkit. It is shipped as a
// compiled artifact so documents have something real to build, and it backs
// the engine's tests.
package widgets

import (
	"fmt"
	"strings"
	"time"
)

// Widget is anything that can be placed in a container.
type Widget interface {
	Kind() string
}

// Alignment positions content inside a widget.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
}

// Font is a value type; derive variants with the With methods.
type Font struct {
	Family string
	Size   float64
	Bold   bool
}

// DefaultFont is used by widgets that were not given a font.
var DefaultFont = Font{Family: "sans", Size: 12}

// NewFont returns a regular font.
func NewFont(family string, size float64) Font {
	return Font{Family: family, Size: size}
}

// WithSize returns a copy of f with the given size.
func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

// Bolded returns a bold copy of f.
func (f Font) Bolded() Font {
	f.Bold = true
	return f
}

// ChildList is the ordered child collection of a container.
type ChildList struct {
	items []Widget
	adds  int
}

// Add appends w.
func (l *ChildList) Add(w Widget) {
	l.items = append(l.items, w)
	l.adds++
}

// Clear removes every child.
func (l *ChildList) Clear() {
	l.items = nil
}

// Len returns the number of children.
func (l *ChildList) Len() int {
	return len(l.items)
}

// Items returns a copy of the children.
func (l *ChildList) Items() []Widget {
	return append([]Widget(nil), l.items...)
}

// Adds counts every Add call since creation.
func (l *ChildList) Adds() int {
	return l.adds
}

// Window is a top-level container.
type Window struct {
	Title   string
	Width   int
	Height  int
	Font    Font
	Tags    map[string]string
	Sizes   []int
	Timeout time.Duration
	Icon    string
	Visible bool
	Owner   any

	children ChildList
}

// NewWindow returns an 800x600 window.
func NewWindow(title string) *Window {
	return &Window{Title: title, Width: 800, Height: 600, Font: DefaultFont}
}

// NewWindowSized returns a window of the given size.
func NewWindowSized(title string, width, height int) *Window {
	w := NewWindow(title)
	w.Width, w.Height = width, height
	return w
}

func (w *Window) Kind() string { return "window" }

// Children returns the live child list.
func (w *Window) Children() *ChildList {
	return &w.children
}

// Show marks the window visible and returns it.
func (w *Window) Show() *Window {
	w.Visible = true
	return w
}

// Clone returns a shallow copy without children.
func (w *Window) Clone() *Window {
	c := *w
	c.children = ChildList{}
	return &c
}

// Named sets the title and returns the window.
func (w *Window) Named(title string) *Window {
	w.Title = title
	return w
}

// Button is a clickable widget.
type Button struct {
	Align   Alignment
	Enabled bool
	Font    Font
	Owner   any

	text     string
	setCalls int
}

// NewButton returns an enabled button.
func NewButton(text string) *Button {
	return &Button{text: text, Enabled: true, Font: DefaultFont}
}

func (b *Button) Kind() string { return "button" }

func (b *Button) Text() string { return b.text }

// SetText replaces the caption.
func (b *Button) SetText(text string) {
	b.text = text
	b.setCalls++
}

// SetCalls counts SetText calls.
func (b *Button) SetCalls() int { return b.setCalls }

// Label shows text. Its lines are only reachable as a copy.
type Label struct {
	Text  string
	Align Alignment
	Owner any

	lines []string
}

// NewLabel returns a label.
func NewLabel(text string) *Label {
	return &Label{Text: text}
}

// NewLabelRepeated returns a label with text repeated n times.
func NewLabelRepeated(text string, n int) *Label {
	return &Label{Text: strings.Repeat(text, n)}
}

// NewLabelOf returns a label showing the printed form of v.
func NewLabelOf(v any) *Label {
	return &Label{Text: fmt.Sprint(v)}
}

func (l *Label) Kind() string { return "label" }

// Lines returns a copy of the lines.
func (l *Label) Lines() []string {
	return append([]string(nil), l.lines...)
}

// SetLines replaces the lines.
func (l *Label) SetLines(lines []string) {
	l.lines = append([]string(nil), lines...)
}

// Panel groups widgets.
type Panel struct {
	Name    string
	Owner   any
	Padding [4]int

	children ChildList
}

func (p *Panel) Kind() string { return "panel" }

// Children returns the live child list.
func (p *Panel) Children() *ChildList {
	return &p.children
}

// AddAll appends every widget and returns the new child count.
func (p *Panel) AddAll(ws ...Widget) int {
	for _, w := range ws {
		p.children.Add(w)
	}
	return p.children.Len()
}

// Find returns the first child of the given kind, or nil.
func (p *Panel) Find(kind string) Widget {
	for _, w := range p.children.items {
		if w.Kind() == kind {
			return w
		}
	}
	return nil
}

// WindowBuilder builds a window step by step.
type WindowBuilder struct {
	w *Window
}

// NewWindowBuilder starts a builder for an untitled window.
func NewWindowBuilder() *WindowBuilder {
	return &WindowBuilder{w: NewWindow("")}
}

// Title sets the title.
func (b *WindowBuilder) Title(title string) *WindowBuilder {
	b.w.Title = title
	return b
}

// Size sets the dimensions.
func (b *WindowBuilder) Size(width, height int) *WindowBuilder {
	b.w.Width, b.w.Height = width, height
	return b
}

// Build returns the window. It fails when no title was set.
func (b *WindowBuilder) Build() (*Window, error) {
	if b.w.Title == "" {
		return nil, fmt.Errorf("window needs a title")
	}
	return b.w, nil
}

// Sum adds its arguments.
func Sum(xs ...int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// Join joins parts with sep.
func Join(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}

// Explode always panics; it exercises panic recovery.
func Explode() int {
	panic("boom")
}

// Controller receives the instances a document marks with an id.
type Controller struct {
	MainWindow *Window
	OkButton   *Button
	Status     string

	cancel *Button
}

// NewController returns an empty controller.
func NewController() *Controller {
	return &Controller{Status: "new"}
}

// SetCancelButton receives the "cancel_button" id.
func (c *Controller) SetCancelButton(b *Button) {
	c.cancel = b
}

// CancelButton returns the injected cancel button.
func (c *Controller) CancelButton() *Button {
	return c.cancel
}
