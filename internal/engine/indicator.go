package engine

import (
	"fmt"
	"strings"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// LoadingIndicator shows a spinner per container in the window title until
// that container's model arrives. A load that never resolves keeps it
// spinning.
type LoadingIndicator struct {
	base     string
	order    []string
	visible  map[string]bool
	frame    int
	setTitle func(string)
}

func NewLoadingIndicator(base string, setTitle func(string)) *LoadingIndicator {
	return &LoadingIndicator{
		base:     base,
		visible:  make(map[string]bool),
		setTitle: setTitle,
	}
}

func (li *LoadingIndicator) Show(container string) {
	if _, known := li.visible[container]; !known {
		li.order = append(li.order, container)
	}
	li.visible[container] = true
	li.refresh()
}

func (li *LoadingIndicator) Hide(container string) {
	if !li.visible[container] {
		return
	}
	li.visible[container] = false
	li.refresh()
}

func (li *LoadingIndicator) Visible(container string) bool {
	return li.visible[container]
}

func (li *LoadingIndicator) Active() bool {
	for _, v := range li.visible {
		if v {
			return true
		}
	}
	return false
}

// Tick advances the spinner one frame.
func (li *LoadingIndicator) Tick() {
	if !li.Active() {
		return
	}
	li.frame = (li.frame + 1) % len(spinnerFrames)
	li.refresh()
}

func (li *LoadingIndicator) Title() string {
	var loading []string
	for _, c := range li.order {
		if li.visible[c] {
			loading = append(loading, c)
		}
	}
	if len(loading) == 0 {
		return li.base
	}
	return fmt.Sprintf("%s - loading %s %s", li.base, strings.Join(loading, ", "), spinnerFrames[li.frame])
}

func (li *LoadingIndicator) refresh() {
	if li.setTitle != nil {
		li.setTitle(li.Title())
	}
}
