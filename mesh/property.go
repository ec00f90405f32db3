package mesh

import "github.com/soypat/meshden/props"

// handle is satisfied by every element handle type.
type handle interface {
	~int
}

// Property is a property array indexed by element handles of type H.
// The zero value is invalid; check Valid after a Get.
type Property[H handle, T any] struct {
	p props.Property[T]
}

// Valid reports whether the property refers to an existing array.
func (p Property[H, T]) Valid() bool { return p.p.Valid() }

// Name returns the property's key.
func (p Property[H, T]) Name() string { return p.p.Name() }

// At returns the value stored for element h.
func (p Property[H, T]) At(h H) T { return p.p.At(int(h)) }

// Set stores val for element h.
func (p Property[H, T]) Set(h H, val T) { p.p.Set(int(h), val) }

// Ptr returns a pointer to the value of element h. It is invalidated when
// elements are added to the mesh.
func (p Property[H, T]) Ptr(h H) *T { return p.p.Ptr(int(h)) }

// Data returns the backing slice, indexed by handle.
func (p Property[H, T]) Data() []T { return p.p.Data() }

// ModelProperty is a single value attached to a whole mesh.
type ModelProperty[T any] struct {
	p props.Property[T]
}

// Valid reports whether the property refers to an existing value.
func (p ModelProperty[T]) Valid() bool { return p.p.Valid() }

// Get returns the stored value.
func (p ModelProperty[T]) Get() T { return p.p.At(0) }

// Set stores val.
func (p ModelProperty[T]) Set(val T) { p.p.Set(0, val) }

// VertexStore is implemented by meshes that keep per-vertex properties.
type VertexStore interface {
	VertexProps() *props.Container
}

// EdgeStore is implemented by meshes that keep per-edge properties.
type EdgeStore interface {
	EdgeProps() *props.Container
}

// HalfedgeStore is implemented by meshes that keep per-halfedge properties.
type HalfedgeStore interface {
	HalfedgeProps() *props.Container
}

// FaceStore is implemented by meshes that keep per-face properties.
type FaceStore interface {
	FaceProps() *props.Container
}

// ModelStore is implemented by meshes that keep whole-model properties.
type ModelStore interface {
	ModelProps() *props.Container
}

// AddVertexProperty adds a vertex property; it fails if the name is taken.
func AddVertexProperty[T any](m VertexStore, name string, def T) (Property[Vertex, T], error) {
	p, err := props.Add(m.VertexProps(), name, def)
	return Property[Vertex, T]{p}, err
}

// GetVertexProperty returns the named vertex property, invalid if absent.
func GetVertexProperty[T any](m VertexStore, name string) Property[Vertex, T] {
	return Property[Vertex, T]{props.Get[T](m.VertexProps(), name)}
}

// VertexPropertyOf returns the named vertex property, adding it if absent.
func VertexPropertyOf[T any](m VertexStore, name string, def T) Property[Vertex, T] {
	return Property[Vertex, T]{props.GetOrAdd(m.VertexProps(), name, def)}
}

// AddHalfedgeProperty adds a halfedge property; it fails if the name is taken.
func AddHalfedgeProperty[T any](m HalfedgeStore, name string, def T) (Property[Halfedge, T], error) {
	p, err := props.Add(m.HalfedgeProps(), name, def)
	return Property[Halfedge, T]{p}, err
}

// GetHalfedgeProperty returns the named halfedge property, invalid if absent.
func GetHalfedgeProperty[T any](m HalfedgeStore, name string) Property[Halfedge, T] {
	return Property[Halfedge, T]{props.Get[T](m.HalfedgeProps(), name)}
}

// HalfedgePropertyOf returns the named halfedge property, adding it if absent.
func HalfedgePropertyOf[T any](m HalfedgeStore, name string, def T) Property[Halfedge, T] {
	return Property[Halfedge, T]{props.GetOrAdd(m.HalfedgeProps(), name, def)}
}

// AddEdgeProperty adds an edge property; it fails if the name is taken.
func AddEdgeProperty[T any](m EdgeStore, name string, def T) (Property[Edge, T], error) {
	p, err := props.Add(m.EdgeProps(), name, def)
	return Property[Edge, T]{p}, err
}

// GetEdgeProperty returns the named edge property, invalid if absent.
func GetEdgeProperty[T any](m EdgeStore, name string) Property[Edge, T] {
	return Property[Edge, T]{props.Get[T](m.EdgeProps(), name)}
}

// EdgePropertyOf returns the named edge property, adding it if absent.
func EdgePropertyOf[T any](m EdgeStore, name string, def T) Property[Edge, T] {
	return Property[Edge, T]{props.GetOrAdd(m.EdgeProps(), name, def)}
}

// AddFaceProperty adds a face property; it fails if the name is taken.
func AddFaceProperty[T any](m FaceStore, name string, def T) (Property[Face, T], error) {
	p, err := props.Add(m.FaceProps(), name, def)
	return Property[Face, T]{p}, err
}

// GetFaceProperty returns the named face property, invalid if absent.
func GetFaceProperty[T any](m FaceStore, name string) Property[Face, T] {
	return Property[Face, T]{props.Get[T](m.FaceProps(), name)}
}

// FacePropertyOf returns the named face property, adding it if absent.
func FacePropertyOf[T any](m FaceStore, name string, def T) Property[Face, T] {
	return Property[Face, T]{props.GetOrAdd(m.FaceProps(), name, def)}
}

// AddModelProperty adds a model property; it fails if the name is taken.
func AddModelProperty[T any](m ModelStore, name string, def T) (ModelProperty[T], error) {
	p, err := props.Add(m.ModelProps(), name, def)
	return ModelProperty[T]{p}, err
}

// GetModelProperty returns the named model property, invalid if absent.
func GetModelProperty[T any](m ModelStore, name string) ModelProperty[T] {
	return ModelProperty[T]{props.Get[T](m.ModelProps(), name)}
}

func mustAdd[T any](c *props.Container, name string, def T) props.Property[T] {
	p, err := props.Add(c, name, def)
	if err != nil {
		panic("bug: " + err.Error())
	}
	return p
}

func mustGet[T any](c *props.Container, name string) props.Property[T] {
	p := props.Get[T](c, name)
	if !p.Valid() {
		panic("bug: missing standard property " + name)
	}
	return p
}
