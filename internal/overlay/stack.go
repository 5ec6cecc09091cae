// Overlay stack for region annotations drawn onto display frames
package overlay

import (
	"image"
	"sync"
)

// Overlay is one detection drawn onto a frame
type Overlay struct {
	Region  image.Rectangle
	Label   string
	Labeled bool
}

// Stack collects the overlays of a single frame in drawing order
type Stack struct {
	mu       sync.RWMutex
	overlays []Overlay
}

func NewStack() *Stack {
	return &Stack{
		overlays: make([]Overlay, 0),
	}
}

// Add records a detected region that carries no label
func (s *Stack) Add(region image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, Overlay{Region: region})
}

// AddLabeled records a detected region together with its label
func (s *Stack) AddLabeled(region image.Rectangle, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, Overlay{Region: region, Label: label, Labeled: true})
}

// Overlays returns a copy of the overlays in drawing order
func (s *Stack) Overlays() []Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Overlay, len(s.overlays))
	copy(result, s.overlays)
	return result
}

// Len returns the number of overlays
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overlays)
}

// Labels returns the labels of labeled overlays in drawing order
func (s *Stack) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.overlays))
	for _, o := range s.overlays {
		if o.Labeled {
			labels = append(labels, o.Label)
		}
	}
	return labels
}
