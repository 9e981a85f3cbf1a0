// Файл: internal/integrations/registry.go
package integrations

import (
	"fmt"
	"sync"

	"operator-console/internal/entities"
)

// RegistryInterface определяет, что должен уметь реестр коллекций.
type RegistryInterface interface {
	// Register добавляет коллекцию. Повторная регистрация того же имени - ошибка.
	Register(collection Collection) error

	// Get находит коллекцию по имени.
	Get(name entities.Origin) (Collection, error)
}

// Registry - реестр коллекций бэкенда.
type Registry struct {
	collections map[entities.Origin]Collection
	mu          sync.RWMutex
}

func NewRegistry(collections ...Collection) (*Registry, error) {
	r := &Registry{collections: make(map[entities.Origin]Collection)}
	for _, c := range collections {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(collection Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := collection.Name()
	if !name.Valid() {
		return fmt.Errorf("неизвестная коллекция '%s'", name)
	}
	if _, exists := r.collections[name]; exists {
		return fmt.Errorf("коллекция '%s' уже зарегистрирована", name)
	}
	r.collections[name] = collection
	return nil
}

func (r *Registry) Get(name entities.Origin) (Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.collections[name]
	if !exists {
		return nil, fmt.Errorf("коллекция '%s' не зарегистрирована", name)
	}
	return c, nil
}
