package codegen

// Binding records that a variable lives in a register.
type Binding struct {
	Name     string
	Register string
}

// Slot records a variable's spill slot, Offset bytes below the frame
// pointer.
type Slot struct {
	Name   string
	Offset int
}

// Allocator assigns registers first come, first served. When the pool is
// exhausted it evicts the variable bound earliest, regardless of how
// recently it was used, storing it to a stack slot. A variable keeps its
// slot once it has one, so evicting it again reuses the same address.
//
// Names used by the instruction being lowered are pinned and never chosen
// for eviction; Begin releases the pins.
type Allocator struct {
	pool   []string
	free   []string
	bound  []Binding
	slots  map[string]int
	frame  []Slot
	pinned map[string]bool
	top    int

	// slotSize is the size in bytes of one stack slot.
	slotSize int

	// OnSpill is called to store reg into the slot at offset.
	OnSpill func(reg string, offset int)

	// OnReload is called to load reg from the slot at offset.
	OnReload func(reg string, offset int)
}

// NewAllocator returns an allocator over pool, used in order, whose stack
// slots are slotSize bytes apart.
func NewAllocator(pool []string, slotSize int) *Allocator {
	return &Allocator{
		pool:     pool,
		slotSize: slotSize,
		free:     append([]string(nil), pool...),
		slots:    make(map[string]int),
		pinned:   make(map[string]bool),
		OnSpill:  func(string, int) {},
		OnReload: func(string, int) {},
	}
}

// Begin starts a new instruction.
func (a *Allocator) Begin() {
	a.pinned = make(map[string]bool)
}

// Use returns the register holding name, reloading it from its slot if it
// was spilled.
func (a *Allocator) Use(name string) string {
	if reg, ok := a.Register(name); ok {
		a.pinned[name] = true
		return reg
	}
	reg := a.bind(name)
	if off, ok := a.slots[name]; ok {
		a.OnReload(reg, off)
	}
	return reg
}

// Def returns a register for a value about to be written to name. A spilled
// value is not reloaded.
func (a *Allocator) Def(name string) string {
	if reg, ok := a.Register(name); ok {
		a.pinned[name] = true
		return reg
	}
	return a.bind(name)
}

// Home returns the stack slot of name, creating one if needed, and stores
// the current register value there. Variables whose address is taken need
// a home in memory.
func (a *Allocator) Home(name string) int {
	off := a.slotOf(name)
	if reg, ok := a.Register(name); ok {
		a.OnSpill(reg, off)
	}
	return off
}

// Register reports the register currently holding name.
func (a *Allocator) Register(name string) (string, bool) {
	for _, b := range a.bound {
		if b.Name == name {
			return b.Register, true
		}
	}
	return "", false
}

// Bindings returns the current register assignments in binding order.
func (a *Allocator) Bindings() []Binding {
	return append([]Binding(nil), a.bound...)
}

// Frame returns every spill slot in the order it was created.
func (a *Allocator) Frame() []Slot {
	return append([]Slot(nil), a.frame...)
}

func (a *Allocator) bind(name string) string {
	reg := a.take()
	a.bound = append(a.bound, Binding{Name: name, Register: reg})
	a.pinned[name] = true
	return reg
}

func (a *Allocator) take() string {
	if len(a.free) > 0 {
		reg := a.free[0]
		a.free = a.free[1:]
		return reg
	}

	victim := 0
	for i, b := range a.bound {
		if !a.pinned[b.Name] {
			victim = i
			break
		}
	}
	b := a.bound[victim]
	a.bound = append(a.bound[:victim], a.bound[victim+1:]...)
	a.OnSpill(b.Register, a.slotOf(b.Name))
	return b.Register
}

func (a *Allocator) slotOf(name string) int {
	if off, ok := a.slots[name]; ok {
		return off
	}
	a.top += a.slotSize
	a.slots[name] = a.top
	a.frame = append(a.frame, Slot{Name: name, Offset: a.top})
	return a.top
}
