package cadence

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// PropertyPath is a parsed walk through nested values to a writable
// property, e.g. "Fill.Color.R" or "Children[2].Alpha".
type PropertyPath struct {
	raw   string
	steps []pathStep
}

type pathStep struct {
	name  string
	index int
	isIdx bool
}

// ParsePropertyPath parses dot-separated exported field names, each
// optionally followed by one or more [index] selectors.
func ParsePropertyPath(s string) (PropertyPath, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return PropertyPath{}, fmt.Errorf("empty property path")
	}
	p := PropertyPath{raw: raw}
	for _, seg := range strings.Split(raw, ".") {
		name, rest, indexed := strings.Cut(seg, "[")
		if !isIdentifier(name) {
			return PropertyPath{}, fmt.Errorf("property path %q: invalid segment %q", raw, seg)
		}
		p.steps = append(p.steps, pathStep{name: name})
		if !indexed {
			continue
		}
		rest = "[" + rest
		for rest != "" {
			if rest[0] != '[' {
				return PropertyPath{}, fmt.Errorf("property path %q: invalid segment %q", raw, seg)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return PropertyPath{}, fmt.Errorf("property path %q: unterminated index in %q", raw, seg)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return PropertyPath{}, fmt.Errorf("property path %q: invalid index in %q", raw, seg)
			}
			p.steps = append(p.steps, pathStep{index: idx, isIdx: true})
			rest = rest[end+1:]
		}
	}
	return p, nil
}

// MustParsePropertyPath is ParsePropertyPath that panics on error.
func MustParsePropertyPath(s string) PropertyPath {
	p, err := ParsePropertyPath(s)
	if err != nil {
		panic("cadence: " + err.Error())
	}
	return p
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func (p PropertyPath) String() string { return p.raw }

// Len returns the number of steps in the path.
func (p PropertyPath) Len() int { return len(p.steps) }

// PropertySlot is a resolved, settable property.
type PropertySlot interface {
	// Type is the property's exact value type.
	Type() reflect.Type
	// Get reads the current value.
	Get() any
	// Set writes v, which must be of Type.
	Set(v any) error
}

// PointerSlot is implemented by slots backed by addressable memory. Bindings
// use the pointer to write values without boxing.
type PointerSlot interface {
	PropertySlot
	Pointer() any
}

// PropertyResolver resolves a path against a target object. Storyboards use
// it once per leaf at Begin.
type PropertyResolver interface {
	ResolveProperty(target any, path PropertyPath) (PropertySlot, error)
}

// ReflectResolver resolves paths by walking exported struct fields,
// pointers, interfaces and slice or array indexes. The target must be a
// pointer so the final property is addressable.
type ReflectResolver struct{}

// ResolveProperty implements PropertyResolver.
func (ReflectResolver) ResolveProperty(target any, path PropertyPath) (PropertySlot, error) {
	if len(path.steps) == 0 {
		return nil, fmt.Errorf("empty property path")
	}
	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return nil, fmt.Errorf("target is nil")
	}
	walked := ""
	for _, st := range path.steps {
		var err error
		if v, err = indirect(v, walked); err != nil {
			return nil, err
		}
		if st.isIdx {
			walked += "[" + strconv.Itoa(st.index) + "]"
			if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
				return nil, fmt.Errorf("%s is %v, not indexable", walked, v.Type())
			}
			if st.index >= v.Len() {
				return nil, fmt.Errorf("index %s out of range (len %d)", walked, v.Len())
			}
			v = v.Index(st.index)
			continue
		}
		if walked != "" {
			walked += "."
		}
		walked += st.name
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%s: %v has no fields", walked, v.Type())
		}
		f, ok := v.Type().FieldByName(st.name)
		if !ok {
			return nil, fmt.Errorf("%s: %v has no field %s", walked, v.Type(), st.name)
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("%s: field is unexported", walked)
		}
		v = v.FieldByIndex(f.Index)
	}
	if !v.CanSet() {
		return nil, fmt.Errorf("%s is not writable", walked)
	}
	return reflectSlot{v: v}, nil
}

// indirect follows pointers and interfaces, failing on nil.
func indirect(v reflect.Value, walked string) (reflect.Value, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			if walked == "" {
				walked = "target"
			}
			return reflect.Value{}, fmt.Errorf("%s is nil", walked)
		}
		v = v.Elem()
	}
	return v, nil
}

type reflectSlot struct {
	v reflect.Value
}

func (s reflectSlot) Type() reflect.Type { return s.v.Type() }
func (s reflectSlot) Get() any           { return s.v.Interface() }
func (s reflectSlot) Pointer() any       { return s.v.Addr().Interface() }

func (s reflectSlot) Set(v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != s.v.Type() {
		return fmt.Errorf("cannot assign %T to property of type %v", v, s.v.Type())
	}
	s.v.Set(rv)
	return nil
}

// ReadProperty resolves path against target with the ReflectResolver and
// returns the property's current value.
func ReadProperty(target any, path string) (any, error) {
	p, err := ParsePropertyPath(path)
	if err != nil {
		return nil, err
	}
	slot, err := ReflectResolver{}.ResolveProperty(target, p)
	if err != nil {
		return nil, err
	}
	return slot.Get(), nil
}
