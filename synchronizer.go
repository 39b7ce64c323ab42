package localize

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// PreferenceStore persists the selected culture per synchronization key.
type PreferenceStore interface {
	Load(key string) (culture string, ok bool, err error)
	Save(key, culture string) error
}

// SyncRegistry owns the synchronizers of a process. Create one at startup
// and pass it to everything that registers catalogs.
type SyncRegistry struct {
	lock   sync.Mutex
	syncs  map[string]*Synchronizer
	store  PreferenceStore
	hint   language.Tag
	logger *slog.Logger
}

type RegistryOption func(*SyncRegistry)

// WithPreferenceStore persists selections in s and seeds new
// synchronizers from it.
func WithPreferenceStore(s PreferenceStore) RegistryOption {
	return func(r *SyncRegistry) { r.store = s }
}

// WithLanguageHint sets the culture new synchronizers select
// when nothing was persisted, usually the editor or OS language.
func WithLanguageHint(tag language.Tag) RegistryOption {
	return func(r *SyncRegistry) { r.hint = tag }
}

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *SyncRegistry) { r.logger = l }
}

func NewSyncRegistry(opts ...RegistryOption) *SyncRegistry {
	r := &SyncRegistry{
		syncs:  map[string]*Synchronizer{},
		hint:   language.Und,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register subscribes ref to the synchronizer of key, creating it if necessary.
//
// The first registration of a key seeds the shared locale from the
// preference store, then the language hint, then ref's native locale.
// Later registrations adopt the shared locale or fall back to native.
func (r *SyncRegistry) Register(key string, ref *CatalogReference) *Synchronizer {
	r.lock.Lock()
	s, ok := r.syncs[key]
	if !ok {
		s = &Synchronizer{key: key, registry: r}
		r.syncs[key] = s
	}
	r.lock.Unlock()

	s.lock.Lock()
	if slices.Contains(s.subscribers, ref) {
		s.lock.Unlock()
		return s
	}
	s.subscribers = append(s.subscribers, ref)
	if s.selected == nil {
		s.selected = r.seed(key, ref.Catalog())
		r.logger.Debug("synchronizer created",
			slog.String("key", key), slog.String("locale", s.selected.Culture()))
	} else {
		ref.Catalog().SelectLocaleOrNative(s.selected)
	}
	s.lock.Unlock()

	ref.Retranslate()
	return s
}

// seed selects the initial locale in c without notifying subscribers.
func (r *SyncRegistry) seed(key string, c *Catalog) *Locale {
	if r.store != nil {
		culture, ok, err := r.store.Load(key)
		switch {
		case err != nil:
			r.logger.Warn("loading locale preference",
				slog.String("key", key), slog.Any("err", err))
		case ok:
			if tag, err := language.Parse(culture); err == nil {
				if l, ok := c.LocaleByCulture(tag); ok {
					return c.SelectLocaleOrNative(l)
				}
			}
		}
	}
	if r.hint != language.Und {
		if l, conf := c.Match(r.hint); conf != language.No {
			return c.SelectLocaleOrNative(l)
		}
	}
	return c.SelectLocaleOrNative(c.NativeLocale())
}

func (r *SyncRegistry) persist(key string, l *Locale) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(key, l.Culture()); err != nil {
		r.logger.Warn("saving locale preference",
			slog.String("key", key), slog.Any("err", err))
	}
}

// Synchronizer returns the synchronizer of key if registered.
func (r *SyncRegistry) Synchronizer(key string) (*Synchronizer, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, ok := r.syncs[key]
	return s, ok
}

// Keys returns the keys of all synchronizers.
func (r *SyncRegistry) Keys() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	keys := make([]string, 0, len(r.syncs))
	for k := range r.syncs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Close drops all synchronizers and their subscriptions.
func (r *SyncRegistry) Close() {
	r.lock.Lock()
	syncs := r.syncs
	r.syncs = map[string]*Synchronizer{}
	r.lock.Unlock()
	for _, s := range syncs {
		s.lock.Lock()
		s.subscribers = nil
		s.lock.Unlock()
	}
}

// Synchronizer shares the selected locale between all catalog references
// registered with the same key.
type Synchronizer struct {
	key      string
	registry *SyncRegistry

	lock        sync.Mutex
	selected    *Locale
	subscribers []*CatalogReference
}

func (s *Synchronizer) Key() string { return s.key }

// SelectedLocale returns the locale adopted by the first subscriber
// during the last selection.
func (s *Synchronizer) SelectedLocale() *Locale {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.selected
}

// Subscribers returns the registered catalog references.
func (s *Synchronizer) Subscribers() []*CatalogReference {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.subscribers)
}

// Unsubscribe removes ref. The shared locale is kept.
func (s *Synchronizer) Unsubscribe(ref *CatalogReference) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.subscribers = slices.DeleteFunc(s.subscribers, func(x *CatalogReference) bool {
		return x == ref
	})
}

// supporting returns the first locale equal to l supported by a subscriber.
func (s *Synchronizer) supporting(match func(*Catalog) (*Locale, bool)) (*Locale, bool) {
	for _, ref := range s.subscribers {
		if l, ok := match(ref.Catalog()); ok {
			return l, true
		}
	}
	return nil, false
}

// broadcast makes the catalog of every subscriber select l or fall back
// to native and returns the subscribers to notify once s.lock is released.
// The selected locale becomes the first one that adopted l exactly.
// Must be called with s.lock held.
func (s *Synchronizer) broadcast(l *Locale) []*CatalogReference {
	var first *Locale
	for _, ref := range s.subscribers {
		adopted := ref.Catalog().SelectLocaleOrNative(l)
		if first == nil && adopted.Equal(l) {
			first = adopted
		}
	}
	if first == nil {
		first = l
	}
	s.selected = first
	s.registry.persist(s.key, first)
	return slices.Clone(s.subscribers)
}

// retranslate notifies the subscribers of refs. Subscriber callbacks
// may call back into the synchronizer, so s.lock must not be held.
func retranslate(refs []*CatalogReference) {
	for _, ref := range refs {
		ref.Retranslate()
	}
}

// SelectLocale selects l in all subscribers. Subscribers that don't
// support l fall back to their native locale. It fails if no
// subscriber supports l, in which case nothing changes.
func (s *Synchronizer) SelectLocale(l *Locale) error {
	s.lock.Lock()
	if _, ok := s.supporting(func(c *Catalog) (*Locale, bool) {
		return l, c.Supports(l)
	}); !ok {
		s.lock.Unlock()
		return fmt.Errorf("%w: %s (synchronizer %q)", ErrUnsupportedLocale, l, s.key)
	}
	refs := s.broadcast(l)
	s.lock.Unlock()
	retranslate(refs)
	return nil
}

// TrySelectLocale is like SelectLocale but reports failure as false.
func (s *Synchronizer) TrySelectLocale(l *Locale) bool {
	return s.SelectLocale(l) == nil
}

// SelectCulture selects the locale of culture tag as provided
// by the first subscriber supporting it.
func (s *Synchronizer) SelectCulture(tag language.Tag) error {
	s.lock.Lock()
	l, ok := s.supporting(func(c *Catalog) (*Locale, bool) {
		return c.LocaleByCulture(tag)
	})
	if !ok {
		s.lock.Unlock()
		return fmt.Errorf("%w: %s (synchronizer %q)", ErrUnsupportedLocale, tag, s.key)
	}
	refs := s.broadcast(l)
	s.lock.Unlock()
	retranslate(refs)
	return nil
}

// SelectLocaleOrNative selects the first candidate supported by any
// subscriber. If none is supported, every subscriber selects its native
// locale and the native locale of the first subscriber is returned.
func (s *Synchronizer) SelectLocaleOrNative(candidates ...*Locale) *Locale {
	s.lock.Lock()
	for _, l := range candidates {
		if l == nil {
			continue
		}
		if _, ok := s.supporting(func(c *Catalog) (*Locale, bool) {
			return l, c.Supports(l)
		}); ok {
			refs := s.broadcast(l)
			selected := s.selected
			s.lock.Unlock()
			retranslate(refs)
			return selected
		}
	}

	var first *Locale
	for _, ref := range s.subscribers {
		native := ref.Catalog().SelectLocaleOrNative()
		if first == nil {
			first = native
		}
	}
	if first != nil {
		s.selected = first
		s.registry.persist(s.key, first)
	}
	selected, refs := s.selected, slices.Clone(s.subscribers)
	s.lock.Unlock()
	retranslate(refs)
	return selected
}
