package model

// indexer interface is design to give a unique dense index to a tuple of variable attributes and vice versa
type indexer interface {
	// Returns a unique index to a tuple of attributes, the first attribute varying fastest
	Index(attributes ...uint64) uint64
	// Returns the tuple of attributes from a unique index
	Attributes(index uint64) []uint64
	// Returns the number of distinct tuples
	Size() uint64
}

func newIndexer(domains ...uint64) indexer {
	return &indexerImplementation{
		domains: domains,
	}
}
