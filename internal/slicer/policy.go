package slicer

// Policy selects which parts of a configuration tree are backed up.
// It is a static input to the backup engine, keyed by slicer identity.
type Policy struct {
	// IncludeRoots are top-level paths relative to the configuration
	// directory. A root that does not exist is silently skipped, which
	// supports optional components such as custom_scripts.
	IncludeRoots []string

	// ExcludePatterns are glob patterns matched against base names during
	// tree walks. A matching directory is not descended into; a matching
	// file is omitted.
	ExcludePatterns []string
}

// defaultExcludes covers logs, editor droppings, and temp markers that show
// up inside slicer config trees but have no value in a backup.
var defaultExcludes = []string{
	"*.log",
	"*.bak",
	"*.tmp",
	".DS_Store",
	"cache",
}

// PolicyFor returns the selection policy for a slicer identity.
func PolicyFor(t Type) Policy {
	return Policy{
		IncludeRoots: []string{
			t.ConfFileName(),
			"user",
			"custom_scripts",
		},
		ExcludePatterns: defaultExcludes,
	}
}
