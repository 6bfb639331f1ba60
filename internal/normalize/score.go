package normalize

// Equivalence score component weights. The weights sum above 1.0 on a
// perfect match; the total is capped, so fully specified identical shapes
// always score 1.0 even when one optional component is unknown.
const (
	weightVCPU        = 0.4
	weightMemory      = 0.3
	weightStorage     = 0.15
	weightBaseline    = 0.1
	weightStorageType = 0.05
	weightBandwidth   = 0.05

	// memoryTaperFloor is the smaller/larger memory ratio below which the
	// memory component contributes nothing. The looser 0.8 tolerance belongs
	// to the candidate filter in search.go, not to this taper.
	memoryTaperFloor = 0.9

	// storagePartialFloor is the offered/required storage ratio below which
	// a candidate under-provisions storage and earns no storage credit.
	storagePartialFloor = 0.8

	// bandwidthFloor is the smaller/larger bandwidth ratio that still counts
	// as an equivalent network tier.
	bandwidthFloor = 0.5
)

// Score computes the 0..1 equivalence between a required shape (the
// resource's current configuration) and a candidate shape (a catalog offer).
// Unknown fields on either side contribute nothing.
func Score(required, candidate SKU) float64 {
	var s float64

	if required.VCPU > 0 && required.VCPU == candidate.VCPU {
		s += weightVCPU
	}

	if required.MemoryGB > 0 && candidate.MemoryGB > 0 {
		r := ratio(required.MemoryGB, candidate.MemoryGB)
		if r >= memoryTaperFloor {
			s += weightMemory * (r - memoryTaperFloor) / (1 - memoryTaperFloor)
		}
	}

	if required.StorageGB > 0 && candidate.StorageGB > 0 {
		switch r := candidate.StorageGB / required.StorageGB; {
		case r >= 1:
			s += weightStorage
		case r >= storagePartialFloor:
			s += weightStorage * r
		}
	}

	if required.CPUBaseline != "" && required.CPUBaseline == candidate.CPUBaseline {
		s += weightBaseline
	}

	if required.StorageType != "" && required.StorageType == candidate.StorageType {
		s += weightStorageType
	}

	if required.BandwidthMbps > 0 && candidate.BandwidthMbps > 0 &&
		ratio(required.BandwidthMbps, candidate.BandwidthMbps) >= bandwidthFloor {
		s += weightBandwidth
	}

	if s > 1 {
		s = 1
	}
	return s
}

// ratio returns smaller/larger for two positive values, so the result is
// always in (0, 1].
func ratio(a, b float64) float64 {
	if a > b {
		return b / a
	}
	return a / b
}
