package store

import "sync"

// Memory is an in-memory Provider used for tests and ephemeral runs.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		namespaces: make(map[string]map[string][]byte),
	}
}

func (m *Memory) Get(namespace, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil, false, nil
	}
	value, ok := ns[key]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func (m *Memory) Put(namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.namespaces[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *Memory) Delete(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ns, ok := m.namespaces[namespace]; ok {
		delete(ns, key)
		if len(ns) == 0 {
			delete(m.namespaces, namespace)
		}
	}
	return nil
}

func (m *Memory) Keys(namespace string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.namespaces[namespace]))
	for key := range m.namespaces[namespace] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *Memory) Count(namespace string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace]), nil
}

func (m *Memory) Namespaces() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.namespaces))
	for name := range m.namespaces {
		names = append(names, name)
	}
	return names, nil
}

func (m *Memory) DeleteNamespace(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	return nil
}
