// Package storage provides the persistence abstractions for vectorize.
//
// Two stores are defined here:
//
//   - RunRepository: the run journal, one entry per finished embedding run
//   - VectorCache: vectors keyed by model and record content ID, used to
//     skip re-embedding records that were seen before
//
// The badger subpackage implements both on a single BadgerDB instance.
// Constructors there return these interfaces rather than concrete types so
// callers stay decoupled from BadgerDB.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	runs, err := badger.NewRunRepository(backend)
//	cache, err := badger.NewVectorCache(backend)
//
// Values are encoded with mus-go; see MarshalRunRecord and MarshalVector.
//
// All methods accept context.Context and all implementations must be safe
// for concurrent use.
package storage
