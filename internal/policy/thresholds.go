package policy

// Default threshold values. All of them are deployment-tunable through
// configuration; the compiled values are the documented baseline.
const (
	defaultCPUUtilizationPercent  = 10.0
	defaultSnapshotMaxAgeDays     = 365
	defaultIPMaxAgeDays           = 30
	defaultMinMonthlySavings      = 10.0
	defaultStoragePricePerGBMonth = 0.08
	defaultAutoDismissDays        = 30
	defaultDismissSuppressDays    = 60
	defaultDismissSavingsFactor   = 1.15
	defaultImplementSuppressDays  = 90
	defaultImplementSavingsFactor = 1.20
	defaultCandidateLimit         = 5
)

// Thresholds carries the tunable parameters of the rule engine. The zero
// value of any field means "use the default"; all getters are safe to call
// on a nil receiver.
type Thresholds struct {
	// CPUUtilizationPercent is the average CPU below which a server is
	// considered underutilised.
	CPUUtilizationPercent float64

	// SnapshotMaxAgeDays is the age past which a snapshot is flagged.
	SnapshotMaxAgeDays int

	// IPMaxAgeDays is the age past which an unattached reserved IP is flagged.
	IPMaxAgeDays int

	// MinMonthlySavings is the floor below which cross-provider findings are
	// not worth surfacing. Expressed in the account currency.
	MinMonthlySavings float64

	// StoragePricePerGBMonth estimates the storage-only cost basis of a
	// stopped server when no catalog volume price is available.
	StoragePricePerGBMonth float64

	// AutoDismissDays is how long a recommendation may sit in "seen" before
	// it is auto-dismissed.
	AutoDismissDays int

	// DismissSuppressDays / DismissSavingsFactor control re-surfacing of
	// dismissed recommendations: within the window a finding is suppressed
	// unless its savings exceed the stored value times the factor.
	DismissSuppressDays  int
	DismissSavingsFactor float64

	// ImplementSuppressDays / ImplementSavingsFactor do the same for
	// implemented recommendations.
	ImplementSuppressDays  int
	ImplementSavingsFactor float64

	// CandidateLimit caps catalog candidates considered per comparison.
	CandidateLimit int
}

func (t *Thresholds) CPUThreshold() float64 {
	if t == nil || t.CPUUtilizationPercent <= 0 {
		return defaultCPUUtilizationPercent
	}
	return t.CPUUtilizationPercent
}

func (t *Thresholds) SnapshotMaxAge() int {
	if t == nil || t.SnapshotMaxAgeDays <= 0 {
		return defaultSnapshotMaxAgeDays
	}
	return t.SnapshotMaxAgeDays
}

func (t *Thresholds) IPMaxAge() int {
	if t == nil || t.IPMaxAgeDays <= 0 {
		return defaultIPMaxAgeDays
	}
	return t.IPMaxAgeDays
}

func (t *Thresholds) MinSavings() float64 {
	if t == nil || t.MinMonthlySavings <= 0 {
		return defaultMinMonthlySavings
	}
	return t.MinMonthlySavings
}

func (t *Thresholds) StoragePrice() float64 {
	if t == nil || t.StoragePricePerGBMonth <= 0 {
		return defaultStoragePricePerGBMonth
	}
	return t.StoragePricePerGBMonth
}

func (t *Thresholds) AutoDismissAfterDays() int {
	if t == nil || t.AutoDismissDays <= 0 {
		return defaultAutoDismissDays
	}
	return t.AutoDismissDays
}

func (t *Thresholds) DismissWindowDays() int {
	if t == nil || t.DismissSuppressDays <= 0 {
		return defaultDismissSuppressDays
	}
	return t.DismissSuppressDays
}

func (t *Thresholds) DismissFactor() float64 {
	if t == nil || t.DismissSavingsFactor <= 0 {
		return defaultDismissSavingsFactor
	}
	return t.DismissSavingsFactor
}

func (t *Thresholds) ImplementWindowDays() int {
	if t == nil || t.ImplementSuppressDays <= 0 {
		return defaultImplementSuppressDays
	}
	return t.ImplementSuppressDays
}

func (t *Thresholds) ImplementFactor() float64 {
	if t == nil || t.ImplementSavingsFactor <= 0 {
		return defaultImplementSavingsFactor
	}
	return t.ImplementSavingsFactor
}

func (t *Thresholds) Candidates() int {
	if t == nil || t.CandidateLimit <= 0 {
		return defaultCandidateLimit
	}
	return t.CandidateLimit
}
