package cadence

// DispatcherObject binds a value to the dispatcher that created it. Embed it
// in types whose mutations must happen on the dispatcher's goroutine. The
// reference is non-owning and fixed for the object's lifetime; a zero
// DispatcherObject is free-threaded and passes every access check.
type DispatcherObject struct {
	dispatcher *Dispatcher
}

// NewDispatcherObject returns a DispatcherObject bound to d.
func NewDispatcherObject(d *Dispatcher) DispatcherObject {
	return DispatcherObject{dispatcher: d}
}

// Dispatcher returns the owning dispatcher, or nil for free-threaded objects.
func (o *DispatcherObject) Dispatcher() *Dispatcher {
	return o.dispatcher
}

// CheckAccess reports whether the calling goroutine may mutate the object.
func (o *DispatcherObject) CheckAccess() bool {
	return o.dispatcher == nil || o.dispatcher.CheckAccess()
}

// VerifyAccess returns a *CrossThreadAccessError when the calling goroutine
// does not own the object's dispatcher.
func (o *DispatcherObject) VerifyAccess() error {
	if o.dispatcher == nil {
		return nil
	}
	return o.dispatcher.VerifyAccess()
}

// mustAccess panics with the access error. Used by mutators whose signatures
// carry no error, so a rejected call never mutates anything.
func (o *DispatcherObject) mustAccess() {
	if err := o.VerifyAccess(); err != nil {
		panic(err)
	}
}
