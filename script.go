package cadence

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScriptStep is a single action in a script.
type ScriptStep struct {
	Action     string `json:"action" yaml:"action"`
	Storyboard string `json:"storyboard,omitempty" yaml:"storyboard,omitempty"`
	Priority   string `json:"priority,omitempty" yaml:"priority,omitempty"`
	At         string `json:"at,omitempty" yaml:"at,omitempty"`
	Frames     int    `json:"frames,omitempty" yaml:"frames,omitempty"`
}

// scriptFile is the top-level JSON structure for a script.
type scriptFile struct {
	Steps []ScriptStep `json:"steps"`
}

// Script sequences storyboard commands across frames. Attach it to a Scene
// with SetScript; each Update executes at most one step.
type Script struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
	err       error
}

// LoadScript parses a JSON script.
func LoadScript(jsonData []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(jsonData, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return NewScript(f.Steps)
}

// NewScript validates steps and returns a script ready to attach.
func NewScript(steps []ScriptStep) (*Script, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse script: steps[%d]: %w", i, err)
		}
	}
	return &Script{steps: steps}, nil
}

func (st ScriptStep) validate() error {
	switch st.Action {
	case "begin":
		if st.Priority != "" {
			if _, err := ParsePriority(st.Priority); err != nil {
				return err
			}
		}
	case "pause", "resume", "stop":
	case "seek":
		if _, err := time.ParseDuration(st.At); err != nil {
			return fmt.Errorf("seek: invalid at %q", st.At)
		}
	case "wait":
		if st.Frames < 0 {
			return fmt.Errorf("wait: negative frames")
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	if st.Storyboard == "" {
		return fmt.Errorf("%s: storyboard is required", st.Action)
	}
	return nil
}

// Done reports whether all steps have run, or a step failed.
func (r *Script) Done() bool {
	return r.done
}

// Err returns the error of the step that stopped the script, if any.
func (r *Script) Err() error {
	return r.err
}

// step advances the script by one frame. Called from Scene.Update.
func (r *Script) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	if err := r.exec(s, st); err != nil {
		r.err = fmt.Errorf("script step %d (%s): %w", r.cursor-1, st.Action, err)
		r.done = true
		Logger().Warn("script stopped", "step", r.cursor-1, "action", st.Action, "error", err)
		return
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *Script) exec(s *Scene, st ScriptStep) error {
	if st.Action == "wait" {
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
		return nil
	}
	sb, ok := s.Storyboard(st.Storyboard)
	if !ok {
		return fmt.Errorf("no storyboard named %q", st.Storyboard)
	}
	switch st.Action {
	case "begin":
		p := PriorityNormal
		if st.Priority != "" {
			p, _ = ParsePriority(st.Priority)
		}
		return sb.Begin(s.d, s.root, p)
	case "pause":
		return sb.Pause()
	case "resume":
		return sb.Resume()
	case "stop":
		return sb.Stop()
	case "seek":
		at, _ := time.ParseDuration(st.At)
		return sb.Seek(at)
	}
	return nil
}
