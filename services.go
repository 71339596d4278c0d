// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"reflect"
	"sync"
)

// LockService is the single lock protecting global output (e.g. a
// histogram file), handed to user code so that "global-lock acquisition
// is visible to user code via a service handle; the sink itself does not
// hold the lock" (spec.md §4.7). It is a plain mutual-exclusion lock
// with no shared reader mode.
type LockService struct {
	mu sync.Mutex
}

func NewLockService() *LockService { return &LockService{} }
func (l *LockService) Lock()       { l.mu.Lock() }
func (l *LockService) Unlock()     { l.mu.Unlock() }

// Services is a dependency-injected singleton registry, per spec.md
// §9's "expose as a service whose lifetime is bound to the
// application; forbid static mutable singletons in user code by
// requiring service lookup through the application handle." Keyed by
// concrete type, one instance per type.
type Services struct {
	mu    sync.RWMutex
	byType map[reflect.Type]any
}

// NewServices returns an empty registry.
func NewServices() *Services {
	return &Services{byType: make(map[reflect.Type]any)}
}

// ProvideService registers svc under its own concrete type. Panics on
// a duplicate registration: service identity is fixed at
// Application-build time, not reconfigurable per run.
func ProvideService[T any](s *Services, svc T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := reflect.TypeOf(&svc).Elem()
	if _, exists := s.byType[t]; exists {
		panic(fmt.Sprintf("jana: service %s already provided", t))
	}
	s.byType[t] = svc
}

// GetService looks up the service of type T, returning ErrConfigError
// if none was provided.
func GetService[T any](s *Services) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	v, ok := s.byType[t]
	if !ok {
		return zero, fmt.Errorf("%w: service %s not provided", ErrConfigError, t)
	}
	return v.(T), nil
}
