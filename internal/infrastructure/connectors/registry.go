// Package connectors hosts the vendor adapter registry and the building
// blocks shared by vendor adapters. The sync engine depends only on the
// domain ports; concrete adapters register their connector sets here at
// startup.
package connectors

import (
	"fmt"
	"sync"

	"github.com/booksync/backend/internal/domain/integration"
)

// Registry implements the connector registry port. Registration happens
// once during composition; lookups are read-only afterwards.
type Registry struct {
	mu   sync.RWMutex
	sets map[integration.IntegrationType]map[integration.ObjectType]integration.ConnectorSet
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sets: make(map[integration.IntegrationType]map[integration.ObjectType]integration.ConnectorSet),
	}
}

// Register adds the connector set for an integration/object type pair.
// Registering the same pair twice is a programming error.
func (r *Registry) Register(integrationType integration.IntegrationType, objectType integration.ObjectType, set integration.ConnectorSet) error {
	if !integrationType.IsValid() {
		return integration.ErrInvalidIntegrationType
	}
	if !objectType.IsValid() {
		return integration.ErrInvalidObjectType
	}
	if set.Extractor == nil || set.Transformer == nil || set.Loader == nil {
		return fmt.Errorf("incomplete connector set for %s/%s", integrationType, objectType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byObject, ok := r.sets[integrationType]
	if !ok {
		byObject = make(map[integration.ObjectType]integration.ConnectorSet)
		r.sets[integrationType] = byObject
	}
	if _, exists := byObject[objectType]; exists {
		return fmt.Errorf("connector set already registered for %s/%s", integrationType, objectType)
	}
	byObject[objectType] = set
	return nil
}

// Connectors returns the set for the given integration and object type
func (r *Registry) Connectors(integrationType integration.IntegrationType, objectType integration.ObjectType) (integration.ConnectorSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byObject, ok := r.sets[integrationType]
	if !ok {
		return integration.ConnectorSet{}, fmt.Errorf("no connectors registered for integration %s", integrationType)
	}
	set, ok := byObject[objectType]
	if !ok {
		return integration.ConnectorSet{}, fmt.Errorf("integration %s does not support object type %s", integrationType, objectType)
	}
	return set, nil
}

// SupportedObjects returns the object types the integration can sync, in
// the fixed reader order
func (r *Registry) SupportedObjects(integrationType integration.IntegrationType) []integration.ObjectType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byObject, ok := r.sets[integrationType]
	if !ok {
		return nil
	}
	var supported []integration.ObjectType
	for _, objectType := range integration.ReaderOrder() {
		if _, ok := byObject[objectType]; ok {
			supported = append(supported, objectType)
		}
	}
	return supported
}

// Ensure Registry implements ConnectorRegistry
var _ integration.ConnectorRegistry = (*Registry)(nil)
