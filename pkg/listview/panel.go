package listview

// Default panel captions.
const (
	DefaultCollapsedText = "Selection Criteria"
	DefaultExpandedText  = "Hide"
)

// Panel is a collapsible section header. It starts collapsed.
type Panel struct {
	CollapsedText string
	ExpandedText  string

	collapsed bool
	onChange  []func(collapsed bool)
}

// NewPanel returns a collapsed panel. Empty captions use the defaults.
func NewPanel(collapsedText, expandedText string) *Panel {
	return &Panel{CollapsedText: collapsedText, ExpandedText: expandedText, collapsed: true}
}

// OnChange registers a listener called after every toggle.
func (p *Panel) OnChange(fn func(collapsed bool)) { p.onChange = append(p.onChange, fn) }

// Collapsed reports the current state.
func (p *Panel) Collapsed() bool { return p.collapsed }

// SetCollapsed sets the state without notifying listeners.
func (p *Panel) SetCollapsed(collapsed bool) { p.collapsed = collapsed }

// Text is the caption for the current state.
func (p *Panel) Text() string {
	if p.collapsed {
		if p.CollapsedText != "" {
			return p.CollapsedText
		}
		return DefaultCollapsedText
	}
	if p.ExpandedText != "" {
		return p.ExpandedText
	}
	return DefaultExpandedText
}

// Indicator is the arrow shown next to the caption.
func (p *Panel) Indicator() string {
	if p.collapsed {
		return "▶"
	}
	return "▼"
}

// Toggle flips the state and notifies listeners.
func (p *Panel) Toggle() {
	p.collapsed = !p.collapsed
	for _, fn := range p.onChange {
		fn(p.collapsed)
	}
}

// Expand opens a collapsed panel.
func (p *Panel) Expand() {
	if p.collapsed {
		p.Toggle()
	}
}

// Collapse closes an expanded panel.
func (p *Panel) Collapse() {
	if !p.collapsed {
		p.Toggle()
	}
}
