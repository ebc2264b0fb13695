package domain

// CommonOptions contains shared configuration options for pipeline stages.
type CommonOptions struct {
	Verbose bool
	// DryRun computes every stage but writes no output files.
	DryRun bool
}

// DefaultCommonOptions returns CommonOptions with default values.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{}
}
