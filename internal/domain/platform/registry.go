package platform

// registry - реестр сущностей по ID с сохранением порядка регистрации.
type registry[T any] struct {
	items map[int]T
	order []int
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[int]T)}
}

// add регистрирует элемент; false, если ID уже занят.
func (r *registry[T]) add(id int, item T) bool {
	if _, exists := r.items[id]; exists {
		return false
	}
	r.items[id] = item
	r.order = append(r.order, id)
	return true
}

func (r *registry[T]) get(id int) (T, bool) {
	item, ok := r.items[id]
	return item, ok
}

func (r *registry[T]) has(id int) bool {
	_, ok := r.items[id]
	return ok
}

func (r *registry[T]) len() int {
	return len(r.order)
}

// values возвращает элементы в порядке регистрации.
func (r *registry[T]) values() []T {
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// ids возвращает ID в порядке регистрации.
func (r *registry[T]) ids() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}
