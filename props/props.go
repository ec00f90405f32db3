// Package props implements named attribute arrays that are kept the same
// length as the element pool they describe. A Container holds every array of
// one element kind (vertices, edges, faces...) and applies resizes and swaps
// to all of them at once so an element's attributes always live at the same
// index.
package props

import (
	"errors"
	"fmt"
)

// ErrPropertyExists is returned by Add when the container already holds an
// array with the requested name.
var ErrPropertyExists = errors.New("props: property already exists")

// Cloner may be implemented by element types that hold references (slices,
// maps) so that Container.Clone produces independent copies.
type Cloner[T any] interface {
	Clone() T
}

// array is the type-erased view of a vector used by Container.
type array interface {
	name() string
	typeName() string
	reserve(n int)
	resize(n int)
	swap(i, j int)
	clone() array
	len() int
	freeMemory()
}

type vector[T any] struct {
	nm   string
	data []T
	def  T
}

func (v *vector[T]) name() string { return v.nm }

func (v *vector[T]) typeName() string { return fmt.Sprintf("%T", v.def) }

func (v *vector[T]) len() int { return len(v.data) }

func (v *vector[T]) reserve(n int) {
	if n <= cap(v.data) {
		return
	}
	data := make([]T, len(v.data), n)
	copy(data, v.data)
	v.data = data
}

func (v *vector[T]) resize(n int) {
	switch {
	case n < len(v.data):
		clear(v.data[n:])
		v.data = v.data[:n]
	case n > len(v.data):
		for len(v.data) < n {
			v.data = append(v.data, v.def)
		}
	}
}

func (v *vector[T]) swap(i, j int) {
	v.data[i], v.data[j] = v.data[j], v.data[i]
}

func (v *vector[T]) clone() array {
	cp := &vector[T]{nm: v.nm, def: v.def, data: make([]T, len(v.data))}
	copy(cp.data, v.data)
	for i := range cp.data {
		if c, ok := any(cp.data[i]).(Cloner[T]); ok {
			cp.data[i] = c.Clone()
		}
	}
	return cp
}

func (v *vector[T]) freeMemory() {
	if cap(v.data) == len(v.data) {
		return
	}
	data := make([]T, len(v.data))
	copy(data, v.data)
	v.data = data
}

// Property is a typed handle to one array of a Container. The zero value is
// invalid; Get returns it when the lookup fails so callers must check Valid
// before indexing.
type Property[T any] struct {
	v *vector[T]
}

// Valid reports whether p refers to an existing array.
func (p Property[T]) Valid() bool { return p.v != nil }

// Name returns the key p was registered under.
func (p Property[T]) Name() string { return p.v.nm }

// At returns the value stored at index i.
func (p Property[T]) At(i int) T { return p.v.data[i] }

// Set stores val at index i.
func (p Property[T]) Set(i int, val T) { p.v.data[i] = val }

// Ptr returns a pointer to the value at index i. The pointer is invalidated
// by any operation that grows the owning container.
func (p Property[T]) Ptr(i int) *T { return &p.v.data[i] }

// Data returns the backing slice. Like Ptr, it must not be retained across
// container resizes.
func (p Property[T]) Data() []T { return p.v.data }

// Len returns the number of elements in the array.
func (p Property[T]) Len() int { return len(p.v.data) }

// Default returns the value new slots are filled with.
func (p Property[T]) Default() T { return p.v.def }

// Container stores property arrays for one element kind.
// All arrays have length Size().
type Container struct {
	arrays []array
	size   int
}

// Add registers a new array named name filled with def. It fails if any
// array with that name exists, whatever its element type.
func Add[T any](c *Container, name string, def T) (Property[T], error) {
	if c.index(name) >= 0 {
		return Property[T]{}, fmt.Errorf("%w: %q", ErrPropertyExists, name)
	}
	v := &vector[T]{nm: name, def: def, data: make([]T, c.size)}
	for i := range v.data {
		v.data[i] = def
	}
	c.arrays = append(c.arrays, v)
	return Property[T]{v: v}, nil
}

// Get returns the array named name. The result is invalid if no such array
// exists or its element type is not T.
func Get[T any](c *Container, name string) Property[T] {
	i := c.index(name)
	if i < 0 {
		return Property[T]{}
	}
	v, ok := c.arrays[i].(*vector[T])
	if !ok {
		return Property[T]{}
	}
	return Property[T]{v: v}
}

// GetOrAdd returns the array named name, adding it with default def if it
// does not exist. The result is invalid only if an array of that name
// exists with a different element type.
func GetOrAdd[T any](c *Container, name string, def T) Property[T] {
	if c.index(name) >= 0 {
		return Get[T](c, name)
	}
	p, _ := Add(c, name, def)
	return p
}

func (c *Container) index(name string) int {
	for i, a := range c.arrays {
		if a.name() == name {
			return i
		}
	}
	return -1
}

// Exists reports whether an array named name is registered.
func (c *Container) Exists(name string) bool { return c.index(name) >= 0 }

// Remove drops the array named name. It reports whether an array was removed.
func (c *Container) Remove(name string) bool {
	i := c.index(name)
	if i < 0 {
		return false
	}
	c.arrays = append(c.arrays[:i], c.arrays[i+1:]...)
	return true
}

// Size returns the number of elements every array holds.
func (c *Container) Size() int { return c.size }

// Len returns the number of registered arrays.
func (c *Container) Len() int { return len(c.arrays) }

// Names returns the registered array names in registration order.
func (c *Container) Names() []string {
	names := make([]string, len(c.arrays))
	for i, a := range c.arrays {
		names[i] = a.name()
	}
	return names
}

// TypeOf returns the element type name of array name, or the empty string
// if no such array exists.
func (c *Container) TypeOf(name string) string {
	i := c.index(name)
	if i < 0 {
		return ""
	}
	return c.arrays[i].typeName()
}

// Resize sets every array's length to n. Grown slots take each array's
// default value.
func (c *Container) Resize(n int) {
	if n < 0 {
		panic("props: negative container size")
	}
	for _, a := range c.arrays {
		a.resize(n)
	}
	c.size = n
}

// Reserve allocates capacity for n elements without changing Size.
func (c *Container) Reserve(n int) {
	for _, a := range c.arrays {
		a.reserve(n)
	}
}

// PushBack grows every array by one default-valued element.
func (c *Container) PushBack() {
	c.Resize(c.size + 1)
}

// Swap exchanges the elements at i and j in every array.
func (c *Container) Swap(i, j int) {
	for _, a := range c.arrays {
		a.swap(i, j)
	}
}

// Clone returns a deep copy of c. Properties obtained from the clone do not
// alias the arrays of c.
func (c *Container) Clone() *Container {
	cp := &Container{size: c.size, arrays: make([]array, len(c.arrays))}
	for i, a := range c.arrays {
		cp.arrays[i] = a.clone()
	}
	return cp
}

// Clear removes every array and sets Size to zero.
func (c *Container) Clear() {
	c.arrays = nil
	c.size = 0
}

// TruncateArrays keeps the first n registered arrays and drops the rest.
// Meshes use it to discard user properties while keeping standard ones.
func (c *Container) TruncateArrays(n int) {
	if n < len(c.arrays) {
		clear(c.arrays[n:])
		c.arrays = c.arrays[:n]
	}
}

// FreeMemory releases spare capacity of every array.
func (c *Container) FreeMemory() {
	for _, a := range c.arrays {
		a.freeMemory()
	}
}

// checkSizes panics if an array's length differs from the container size.
func (c *Container) checkSizes() {
	for _, a := range c.arrays {
		if a.len() != c.size {
			panic(fmt.Sprintf("bug: property %q has %d elements, container has %d", a.name(), a.len(), c.size))
		}
	}
}
