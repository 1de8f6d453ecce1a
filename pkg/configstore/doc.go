// Package configstore persists the experiment configuration: the feature
// flag document and the segment document, each versioned as a whole.
//
// Configuration is read far more often than it is written, so the store deals
// in whole documents rather than per-flag records: the evaluator loads one
// document per cache miss, and admin operations replace the document after
// validating it, including dependency graph validation for flags. Stale
// writers lose with ErrVersionConflict.
//
// Three implementations are provided: MemoryStore for tests and ephemeral
// setups, MongoStore for durable shared configuration, and a YAML loader for
// bootstrapping either store from a file checked into the deployment.
//
// Example:
//
//	store := configstore.NewMemoryStore()
//
//	doc, _, err := configstore.LoadFile("experiments.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := store.PutFlags(ctx, doc); err != nil {
//		log.Fatal(err)
//	}
package configstore
