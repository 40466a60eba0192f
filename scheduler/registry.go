package scheduler

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
)

// Registry holds the tasks of a scheduler in the order they were added.
type Registry struct {
	tasks *orderedmap.OrderedMap[string, Task]
}

// NewRegistry ...
func NewRegistry() *Registry {
	return &Registry{tasks: orderedmap.NewOrderedMap[string, Task]()}
}

// Add appends a task under a unique name.
func (r *Registry) Add(name string, t Task) error {
	if _, ok := r.tasks.Get(name); ok {
		return berror.New(game.ErrorDuplicateAction, name)
	}
	r.tasks.Set(name, t)
	return nil
}

// Remove removes the task with the name passed.
func (r *Registry) Remove(name string) error {
	if !r.tasks.Delete(name) {
		return berror.New(game.ErrorActionNotFound, name)
	}
	return nil
}

// Names returns the names of the tasks in insertion order.
func (r *Registry) Names() []string {
	return r.tasks.Keys()
}

func (r *Registry) Len() int {
	return r.tasks.Len()
}

// each calls f for every task in insertion order until f returns false.
func (r *Registry) each(f func(name string, t Task) bool) {
	for el := r.tasks.Front(); el != nil; el = el.Next() {
		if !f(el.Key, el.Value) {
			return
		}
	}
}
