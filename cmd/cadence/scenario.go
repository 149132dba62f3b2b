package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phanxgames/cadence"
)

// Scenario is a complete animation scene: nodes, storyboards, a script that
// drives them frame by frame, and the properties to trace.
type Scenario struct {
	Name        string               `yaml:"name"`
	TPS         int                  `yaml:"tps"`
	Width       int                  `yaml:"width"`
	Height      int                  `yaml:"height"`
	Background  *ColorValue          `yaml:"background"`
	Nodes       []NodeSpec           `yaml:"nodes"`
	Storyboards []StoryboardSpec     `yaml:"storyboards"`
	Script      []cadence.ScriptStep `yaml:"script"`
	Trace       TraceSpec            `yaml:"trace"`
}

// NodeSpec declares one node. Parent defaults to the scene root.
type NodeSpec struct {
	Name     string      `yaml:"name"`
	Parent   string      `yaml:"parent"`
	X        float64     `yaml:"x"`
	Y        float64     `yaml:"y"`
	Width    float64     `yaml:"width"`
	Height   float64     `yaml:"height"`
	Rotation float64     `yaml:"rotation"`
	Alpha    *float64    `yaml:"alpha"`
	Fill     *ColorValue `yaml:"fill"`
}

// TimingSpec holds the timing fields shared by storyboards, groups and
// animations. Durations use Go syntax ("1.5s"); repeat accepts "3x",
// "forever" or a duration.
type TimingSpec struct {
	Name        string  `yaml:"name"`
	Begin       string  `yaml:"begin"`
	Duration    string  `yaml:"duration"`
	AutoReverse bool    `yaml:"autoreverse"`
	Repeat      string  `yaml:"repeat"`
	Fill        string  `yaml:"fill"`
	Speed       float64 `yaml:"speed"`
}

// StoryboardSpec declares a storyboard. Target names the node the
// storyboard begins against; animations may override it per leaf.
type StoryboardSpec struct {
	TimingSpec `yaml:",inline"`
	Target     string          `yaml:"target"`
	Animations []AnimationSpec `yaml:"animations"`
	Groups     []GroupSpec     `yaml:"groups"`
}

// GroupSpec declares a nested parallel group.
type GroupSpec struct {
	TimingSpec `yaml:",inline"`
	Animations []AnimationSpec `yaml:"animations"`
	Groups     []GroupSpec     `yaml:"groups"`
}

// AnimationSpec declares a leaf animation. Type is "number" (float64),
// "int", "color" or "discrete" (a held float64).
type AnimationSpec struct {
	TimingSpec `yaml:",inline"`
	Target     string    `yaml:"target"`
	Property   string    `yaml:"property"`
	Type       string    `yaml:"type"`
	Easing     string    `yaml:"easing"`
	From       yaml.Node `yaml:"from"`
	To         yaml.Node `yaml:"to"`
}

// TraceSpec selects what the trace command prints. Properties are
// "<node>.<path>" strings.
type TraceSpec struct {
	Frames     int      `yaml:"frames"`
	Every      int      `yaml:"every"`
	Properties []string `yaml:"properties"`
}

// ColorValue decodes a color from a name ("red"), a hex string
// ("#ff000080") or a list of 3 or 4 channels in [0, 1].
type ColorValue cadence.Color

var namedColors = map[string]cadence.Color{
	"white":       cadence.ColorWhite,
	"black":       cadence.ColorBlack,
	"red":         cadence.ColorRed,
	"green":       cadence.ColorGreen,
	"blue":        cadence.ColorBlue,
	"transparent": cadence.ColorTransparent,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ColorValue) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := parseColor(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*c = ColorValue(v)
		return nil
	case yaml.SequenceNode:
		var ch []float64
		if err := n.Decode(&ch); err != nil {
			return err
		}
		switch len(ch) {
		case 3:
			*c = ColorValue{R: ch[0], G: ch[1], B: ch[2], A: 1}
		case 4:
			*c = ColorValue{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 channels, got %d", n.Line, len(ch))
		}
		return nil
	}
	return fmt.Errorf("line %d: invalid color", n.Line)
}

func parseColor(s string) (cadence.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return cadence.Color{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	var r, g, b, a uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
		return cadence.Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	return cadence.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: float64(a) / 255}, nil
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.TPS < 0 {
		return fmt.Errorf("tps: must be >= 0")
	}
	if sc.TPS == 0 {
		sc.TPS = 60
	}
	seen := map[string]bool{"root": true}
	for i, n := range sc.Nodes {
		if n.Name == "" {
			return fmt.Errorf("nodes[%d].name: required", i)
		}
		if seen[n.Name] {
			return fmt.Errorf("nodes[%d].name: duplicate %q", i, n.Name)
		}
		if n.Parent != "" && !seen[n.Parent] {
			return fmt.Errorf("nodes[%d].parent: %q is not declared before it", i, n.Parent)
		}
		seen[n.Name] = true
	}
	names := map[string]bool{}
	for i, sb := range sc.Storyboards {
		if sb.Name == "" {
			return fmt.Errorf("storyboards[%d].name: required", i)
		}
		if names[sb.Name] {
			return fmt.Errorf("storyboards[%d].name: duplicate %q", i, sb.Name)
		}
		names[sb.Name] = true
		if sb.Target != "" && !seen[sb.Target] {
			return fmt.Errorf("storyboards[%d].target: unknown node %q", i, sb.Target)
		}
	}
	if sc.Trace.Frames < 0 || sc.Trace.Every < 0 {
		return fmt.Errorf("trace: frames and every must be >= 0")
	}
	if sc.Trace.Every == 0 {
		sc.Trace.Every = 1
	}
	return nil
}

// Build creates the scenario's nodes and storyboards on a new scene owned by
// d, and attaches the script.
func (sc *Scenario) Build(d *cadence.Dispatcher) (*cadence.Scene, error) {
	scene := cadence.NewScene(d)
	for _, ns := range sc.Nodes {
		n := cadence.NewNode(d, ns.Name)
		n.X, n.Y = ns.X, ns.Y
		n.Width, n.Height = ns.Width, ns.Height
		n.Rotation = ns.Rotation
		if ns.Alpha != nil {
			n.Alpha = *ns.Alpha
		}
		if ns.Fill != nil {
			n.Fill = cadence.NewBrush(cadence.Color(*ns.Fill))
		}
		parent := scene.Root()
		if ns.Parent != "" && ns.Parent != "root" {
			parent = scene.Root().Find(ns.Parent)
		}
		parent.AddChild(n)
	}

	for i, spec := range sc.Storyboards {
		sb, leaves, err := spec.build(fmt.Sprintf("storyboards[%d]", i))
		if err != nil {
			return nil, err
		}
		if spec.Target != "" {
			// Leaves without their own target animate the storyboard target.
			target := scene.Root().Find(spec.Target)
			for _, l := range leaves {
				if l.spec.Target == "" {
					sb.SetTarget(l.leaf, target)
				}
			}
		}
		scene.RegisterStoryboard(spec.Name, sb)
	}

	if len(sc.Script) > 0 {
		script, err := cadence.NewScript(sc.Script)
		if err != nil {
			return nil, err
		}
		scene.SetScript(script)
	}
	return scene, nil
}

// builtLeaf pairs a leaf with the spec it was built from.
type builtLeaf struct {
	spec AnimationSpec
	leaf cadence.AnimationTimeline
}

func (spec StoryboardSpec) build(path string) (*cadence.Storyboard, []builtLeaf, error) {
	sb := cadence.NewStoryboard()
	if err := spec.TimingSpec.apply(path, &sb.Timing); err != nil {
		return nil, nil, err
	}
	children, leaves, err := buildChildren(path, spec.Animations, spec.Groups)
	if err != nil {
		return nil, nil, err
	}
	sb.Add(children...)
	for _, l := range leaves {
		sb.SetTargetProperty(l.leaf, l.spec.Property)
		if l.spec.Target != "" {
			sb.SetTargetName(l.leaf, l.spec.Target)
		}
	}
	return sb, leaves, nil
}

func buildChildren(path string, anims []AnimationSpec, groups []GroupSpec) ([]cadence.Timeline, []builtLeaf, error) {
	var children []cadence.Timeline
	var leaves []builtLeaf
	for i, as := range anims {
		p := fmt.Sprintf("%s.animations[%d]", path, i)
		leaf, err := as.build(p)
		if err != nil {
			return nil, nil, err
		}
		children = append(children, leaf)
		leaves = append(leaves, builtLeaf{spec: as, leaf: leaf})
	}
	for i, gs := range groups {
		p := fmt.Sprintf("%s.groups[%d]", path, i)
		g := cadence.NewTimelineGroup()
		if err := gs.TimingSpec.apply(p, &g.Timing); err != nil {
			return nil, nil, err
		}
		sub, subLeaves, err := buildChildren(p, gs.Animations, gs.Groups)
		if err != nil {
			return nil, nil, err
		}
		g.Add(sub...)
		children = append(children, g)
		leaves = append(leaves, subLeaves...)
	}
	return children, leaves, nil
}

func (ts TimingSpec) apply(path string, t *cadence.Timing) error {
	t.Name = ts.Name
	if ts.Begin != "" {
		v, err := time.ParseDuration(ts.Begin)
		if err != nil {
			return fmt.Errorf("%s.begin: invalid duration %q: %w", path, ts.Begin, err)
		}
		t.BeginTime = v
	}
	dur, err := cadence.ParseDuration(ts.Duration)
	if err != nil {
		return fmt.Errorf("%s.duration: %w", path, err)
	}
	t.Duration = dur
	rep, err := cadence.ParseRepeatBehavior(ts.Repeat)
	if err != nil {
		return fmt.Errorf("%s.repeat: %w", path, err)
	}
	t.Repeat = rep
	fill, err := cadence.ParseFillBehavior(ts.Fill)
	if err != nil {
		return fmt.Errorf("%s.fill: %w", path, err)
	}
	t.Fill = fill
	t.AutoReverse = ts.AutoReverse
	t.SpeedRatio = ts.Speed
	return nil
}

func (as AnimationSpec) build(path string) (cadence.AnimationTimeline, error) {
	if as.Property == "" {
		return nil, fmt.Errorf("%s.property: required", path)
	}
	easing, ok := cadence.LookupEasing(as.Easing)
	if !ok {
		return nil, fmt.Errorf("%s.easing: unknown easing %q", path, as.Easing)
	}
	var (
		leaf   cadence.AnimationTimeline
		timing *cadence.Timing
	)
	switch strings.ToLower(as.Type) {
	case "", "number":
		var from, to float64
		if err := decodePair(path, as, &from, &to); err != nil {
			return nil, err
		}
		a := cadence.NewNumberAnimation(from, to)
		a.Easing = easing
		leaf, timing = a, &a.Timing
	case "int":
		var from, to int
		if err := decodePair(path, as, &from, &to); err != nil {
			return nil, err
		}
		a := cadence.NewNumberAnimation(from, to)
		a.Easing = easing
		leaf, timing = a, &a.Timing
	case "color":
		var from, to ColorValue
		if err := decodePair(path, as, &from, &to); err != nil {
			return nil, err
		}
		a := cadence.NewColorAnimation(cadence.Color(from), cadence.Color(to))
		a.Easing = easing
		leaf, timing = a, &a.Timing
	case "discrete":
		var from, to float64
		if err := decodePair(path, as, &from, &to); err != nil {
			return nil, err
		}
		a := cadence.NewDiscreteAnimation(from, to)
		a.Easing = easing
		leaf, timing = a, &a.Timing
	default:
		return nil, fmt.Errorf("%s.type: unknown animation type %q", path, as.Type)
	}
	if err := as.TimingSpec.apply(path, timing); err != nil {
		return nil, err
	}
	if timing.Name == "" {
		timing.Name = as.Property
	}
	return leaf, nil
}

func decodePair(path string, as AnimationSpec, from, to any) error {
	if as.From.Kind == 0 || as.To.Kind == 0 {
		return fmt.Errorf("%s: from and to are required", path)
	}
	if err := as.From.Decode(from); err != nil {
		return fmt.Errorf("%s.from: %w", path, err)
	}
	if err := as.To.Decode(to); err != nil {
		return fmt.Errorf("%s.to: %w", path, err)
	}
	return nil
}

// TraceTarget resolves a "<node>.<path>" trace property against the scene.
func TraceTarget(scene *cadence.Scene, prop string) (*cadence.Node, string, error) {
	name, path, ok := strings.Cut(prop, ".")
	if !ok || path == "" {
		return nil, "", fmt.Errorf("trace property %q: want <node>.<path>", prop)
	}
	n := scene.Root().Find(name)
	if n == nil {
		return nil, "", fmt.Errorf("trace property %q: unknown node %q", prop, name)
	}
	return n, path, nil
}
