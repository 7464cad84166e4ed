// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import "github.com/poiesic/topiary/storage"

// Stores bundles the four repositories sharing one BadgerDB backend.
type Stores struct {
	Topics  storage.TopicRepository
	Sources storage.SourceRepository
	Graph   storage.GraphRepository
	Runs    storage.RunRepository

	backend *Backend
}

// NewStores opens a BadgerDB database at path and constructs repositories
// over it. Caller must Close when done.
func NewStores(path string) (*Stores, error) {
	return newStores(path, false)
}

// NewMemoryStores creates in-memory repositories for testing.
// Caller must Close when done.
func NewMemoryStores() (*Stores, error) {
	return newStores("", true)
}

func newStores(path string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	topics, err := NewTopicRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	sources, err := NewSourceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	graph, err := NewGraphRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	runs, err := NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Stores{
		Topics:  topics,
		Sources: sources,
		Graph:   graph,
		Runs:    runs,
		backend: backend,
	}, nil
}

// Close closes the shared backend.
func (s *Stores) Close() error {
	return s.backend.Close()
}
