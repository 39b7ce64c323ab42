package localize

import (
	"strings"
	"sync"
)

// ElementPrefix marks element texts that are translation keys.
const ElementPrefix = "loc:"

// Element is a node of a UI tree holding a text.
// Implementations must be comparable, usually pointers.
type Element interface {
	Text() string
	SetText(text string)
	Children() []Element
}

// ElementLocalizer translates element trees and keeps them translated
// when the catalog or its selected locale changes.
type ElementLocalizer struct {
	ref         *CatalogReference
	unsubscribe func()

	lock  sync.Mutex
	roots []Element
	keys  map[Element]string
}

// NewElementLocalizer creates a localizer retranslating on every
// notification of ref. Call Close to stop.
func NewElementLocalizer(ref *CatalogReference) *ElementLocalizer {
	l := &ElementLocalizer{ref: ref, keys: map[Element]string{}}
	l.unsubscribe = ref.Subscribe(l.retranslate)
	return l
}

// Localize translates every text of the tree below root that starts
// with ElementPrefix and remembers the root for retranslation.
func (l *ElementLocalizer) Localize(root Element) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, r := range l.roots {
		if r == root {
			l.apply(l.ref.Catalog(), root)
			return
		}
	}
	l.roots = append(l.roots, root)
	l.apply(l.ref.Catalog(), root)
}

// Forget stops retranslating the tree below root.
// Texts keep their current translation.
func (l *ElementLocalizer) Forget(root Element) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i, r := range l.roots {
		if r == root {
			l.roots = append(l.roots[:i], l.roots[i+1:]...)
			break
		}
	}
	walk(root, func(e Element) { delete(l.keys, e) })
}

// Key returns the translation key of e if it was localized.
func (l *ElementLocalizer) Key(e Element) (string, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	k, ok := l.keys[e]
	return k, ok
}

// Close unsubscribes from the catalog reference.
func (l *ElementLocalizer) Close() { l.unsubscribe() }

func (l *ElementLocalizer) retranslate(c *Catalog) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, r := range l.roots {
		l.apply(c, r)
	}
}

func (l *ElementLocalizer) apply(c *Catalog, root Element) {
	walk(root, func(e Element) {
		key, ok := l.keys[e]
		if !ok {
			text := e.Text()
			if !strings.HasPrefix(text, ElementPrefix) {
				return
			}
			key = strings.TrimPrefix(text, ElementPrefix)
			l.keys[e] = key
		}
		e.SetText(c.T(key))
	})
}

func walk(e Element, fn func(Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Children() {
		walk(c, fn)
	}
}
