package model

import "log"

type indexerImplementation struct {
	domains []uint64
}

func (indexer *indexerImplementation) Index(attributes ...uint64) uint64 {
	if len(attributes) != len(indexer.domains) {
		log.Panicf("expected %d attributes, got %d", len(indexer.domains), len(attributes))
	}

	index, stride := uint64(0), uint64(1)
	for i, attribute := range attributes {
		if attribute >= indexer.domains[i] {
			log.Panicf("attribute %d = %d is outside its domain of size %d", i, attribute, indexer.domains[i])
		}
		index += attribute * stride
		stride *= indexer.domains[i]
	}
	return index
}

func (indexer *indexerImplementation) Attributes(index uint64) []uint64 {
	attributes := make([]uint64, len(indexer.domains))
	for i, domain := range indexer.domains {
		attributes[i] = index % domain
		index = index / domain
	}
	return attributes
}

func (indexer *indexerImplementation) Size() uint64 {
	size := uint64(1)
	for _, domain := range indexer.domains {
		size *= domain
	}
	return size
}
