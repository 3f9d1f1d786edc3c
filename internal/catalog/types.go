package catalog

// Question is a single multiple-choice quiz question.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct"`
}

// Module is a named unit of training content: a short reading section
// (learning points) followed by a quiz.
type Module struct {
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Points    []string   `json:"points"`
	Questions []Question `json:"questions"`
}

// Document is the on-disk/on-wire catalog format.
type Document struct {
	Version string   `json:"version"`
	Modules []Module `json:"modules"`
}

// Catalog is the immutable in-memory registry of training modules.
// Built once by the loader and never mutated afterwards.
type Catalog struct {
	byKey map[string]Module
	order []string
}

// New builds a Catalog from an ordered module list.
func New(modules []Module) *Catalog {
	c := &Catalog{
		byKey: make(map[string]Module, len(modules)),
		order: make([]string, 0, len(modules)),
	}
	for _, m := range modules {
		if _, dup := c.byKey[m.Key]; dup {
			continue
		}
		c.byKey[m.Key] = m
		c.order = append(c.order, m.Key)
	}
	return c
}

// Empty returns a catalog with no modules, used for degraded mode when
// the content source is unreachable.
func Empty() *Catalog {
	return New(nil)
}

// Module returns the module for key. The second return is false if the
// key is not in the catalog.
func (c *Catalog) Module(key string) (Module, bool) {
	m, ok := c.byKey[key]
	return m, ok
}

// Has reports whether key names a module in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Modules returns all modules in catalog order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKey[k])
	}
	return out
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Title returns the display title for key, falling back to the key
// itself when unknown.
func (c *Catalog) Title(key string) string {
	if m, ok := c.byKey[key]; ok {
		return m.Title
	}
	return key
}
