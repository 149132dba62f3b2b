package cadence

import (
	"fmt"
	"sort"
)

// Scene is the top-level object that owns a node tree, the dispatcher that
// animates it, and a registry of named storyboards scripts can drive.
type Scene struct {
	root        *Node
	d           *Dispatcher
	storyboards map[string]*Storyboard
	script      *Script
	frame       uint64
}

// NewScene creates a scene on d with a pre-created root node. It must be
// called on d's goroutine.
func NewScene(d *Dispatcher) *Scene {
	if d == nil {
		panic("cadence: nil dispatcher")
	}
	return &Scene{
		root:        NewNode(d, "root"),
		d:           d,
		storyboards: make(map[string]*Storyboard),
	}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Dispatcher returns the scene's dispatcher.
func (s *Scene) Dispatcher() *Dispatcher {
	return s.d
}

// Frame returns the number of completed Update calls.
func (s *Scene) Frame() uint64 {
	return s.frame
}

// Update runs one frame: it steps the attached script, processes one
// dispatcher frame (ticking every running storyboard), and refreshes world
// transforms.
func (s *Scene) Update() error {
	if err := s.d.VerifyAccess(); err != nil {
		return err
	}
	if s.script != nil {
		s.script.step(s)
	}
	err := s.d.Update()
	s.root.UpdateTransforms()
	s.frame++
	return err
}

// RegisterStoryboard names sb so scripts can refer to it. Registering a
// second storyboard under the same name replaces the first.
func (s *Scene) RegisterStoryboard(name string, sb *Storyboard) {
	if sb == nil {
		panic("cadence: nil storyboard")
	}
	s.storyboards[name] = sb
}

// Storyboard returns the storyboard registered as name.
func (s *Scene) Storyboard(name string) (*Storyboard, bool) {
	sb, ok := s.storyboards[name]
	return sb, ok
}

// StoryboardNames returns the registered names in sorted order.
func (s *Scene) StoryboardNames() []string {
	names := make([]string, 0, len(s.storyboards))
	for name := range s.storyboards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Begin begins the storyboard registered as name against the scene root.
func (s *Scene) Begin(name string, p Priority) error {
	sb, ok := s.storyboards[name]
	if !ok {
		return fmt.Errorf("cadence: no storyboard named %q", name)
	}
	return sb.Begin(s.d, s.root, p)
}

// SetScript attaches a script. Its steps run one per Update, before the
// dispatcher frame. Nil detaches.
func (s *Scene) SetScript(sc *Script) {
	s.script = sc
}

// Script returns the attached script, or nil.
func (s *Scene) Script() *Script {
	return s.script
}
