package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrNoProject indicates the manifest is missing project_name
	ErrNoProject = errors.New("manifest must declare project_name")

	// ErrNoBuilds indicates the manifest has no builds defined
	ErrNoBuilds = errors.New("manifest must contain at least one build")

	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrInvalidFormat indicates the manifest file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("manifest must be valid YAML or JSON")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")

	// ErrUnknownPlatform indicates a goos/goarch value the toolchain does not know
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrGoarmWithoutArm indicates goarm was declared without arm in goarch
	ErrGoarmWithoutArm = errors.New("goarm declared but goarch does not include arm")

	// ErrIncompleteIgnore indicates an ignore entry missing goos or goarch
	ErrIncompleteIgnore = errors.New("ignore entries must set both goos and goarch")

	// ErrDeadIgnore indicates an ignore entry that matches no matrix combination
	ErrDeadIgnore = errors.New("ignore entry matches no build matrix combination")

	// ErrEmptyMatrix indicates the ignore set excludes every combination
	ErrEmptyMatrix = errors.New("build matrix expands to no targets")

	// ErrUnknownFormat indicates an unsupported archive format
	ErrUnknownFormat = errors.New("unknown archive format (use tar.gz, zip, or binary)")

	// ErrUnknownAlgorithm indicates an unsupported checksum algorithm
	ErrUnknownAlgorithm = errors.New("unknown checksum algorithm (use sha256 or sha512)")

	// ErrInvalidSort indicates an invalid changelog sort order
	ErrInvalidSort = errors.New("changelog sort must be asc or desc")

	// ErrInvalidFilter indicates a changelog exclude pattern that does not compile
	ErrInvalidFilter = errors.New("changelog exclude pattern is not a valid regexp")

	// ErrNoBucket indicates an s3 publish section without a bucket
	ErrNoBucket = errors.New("publish.s3 requires a bucket")
)
