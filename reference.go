package localize

import (
	"sync"

	"golang.org/x/text/language"
)

// CatalogReference holds a swappable catalog and notifies subscribers
// whenever the catalog is swapped or its selected locale changes,
// so they can retranslate.
type CatalogReference struct {
	lock        sync.Mutex
	catalog     *Catalog
	subscribers map[int]func(*Catalog)
	order       []int
	nextID      int
}

func NewCatalogReference(c *Catalog) *CatalogReference {
	return &CatalogReference{catalog: c, subscribers: map[int]func(*Catalog){}}
}

// Catalog returns the current catalog.
func (r *CatalogReference) Catalog() *Catalog {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.catalog
}

// Subscribe registers fn to be called after every catalog swap and
// locale change. It returns a function that removes the subscription.
func (r *CatalogReference) Subscribe(fn func(*Catalog)) (unsubscribe func()) {
	r.lock.Lock()
	defer r.lock.Unlock()
	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn
	r.order = append(r.order, id)
	return func() {
		r.lock.Lock()
		defer r.lock.Unlock()
		delete(r.subscribers, id)
		for i, x := range r.order {
			if x == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// UpdateCatalog swaps in c, keeping the previously selected locale
// if c supports it, and notifies all subscribers.
// A nil c is ignored and the current catalog stays in place.
func (r *CatalogReference) UpdateCatalog(c *Catalog) {
	if c == nil {
		return
	}
	r.lock.Lock()
	prev := r.catalog
	r.catalog = c
	r.lock.Unlock()
	if prev != nil {
		c.SelectLocaleOrNative(prev.SelectedLocale())
	}
	r.Retranslate()
}

// Retranslate notifies all subscribers in subscription order.
func (r *CatalogReference) Retranslate() {
	r.lock.Lock()
	c := r.catalog
	fns := make([]func(*Catalog), 0, len(r.order))
	for _, id := range r.order {
		fns = append(fns, r.subscribers[id])
	}
	r.lock.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// SelectLocale selects l in the current catalog.
func (r *CatalogReference) SelectLocale(l *Locale) error {
	if err := r.Catalog().SelectLocale(l); err != nil {
		return err
	}
	r.Retranslate()
	return nil
}

// TrySelectLocale selects l in the current catalog if supported.
func (r *CatalogReference) TrySelectLocale(l *Locale) bool {
	if !r.Catalog().TrySelectLocale(l) {
		return false
	}
	r.Retranslate()
	return true
}

// SelectCulture selects the locale of culture tag in the current catalog.
func (r *CatalogReference) SelectCulture(tag language.Tag) error {
	if err := r.Catalog().SelectCulture(tag); err != nil {
		return err
	}
	r.Retranslate()
	return nil
}

// SelectLocaleOrNative is like Catalog.SelectLocaleOrNative
// and always notifies subscribers.
func (r *CatalogReference) SelectLocaleOrNative(candidates ...*Locale) *Locale {
	l := r.Catalog().SelectLocaleOrNative(candidates...)
	r.Retranslate()
	return l
}

// T translates id using the current catalog.
func (r *CatalogReference) T(id string, args ...any) string {
	return r.Catalog().T(id, args...)
}

// TC translates id in context using the current catalog.
func (r *CatalogReference) TC(context, id string, args ...any) string {
	return r.Catalog().TC(context, id, args...)
}

// TN translates a plural message using the current catalog.
func (r *CatalogReference) TN(forms Forms, count float64, args ...any) string {
	return r.Catalog().TN(forms, count, args...)
}

// TCN translates a plural message in context using the current catalog.
func (r *CatalogReference) TCN(context string, forms Forms, count float64, args ...any) string {
	return r.Catalog().TCN(context, forms, count, args...)
}
