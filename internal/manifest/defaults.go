package manifest

// Manifest defaults applied before validation
const (
	DefaultLdflags       = "-s -w -X main.version={{ .Version }} -X main.commit={{ .ShortCommit }} -X main.date={{ .Date }}"
	DefaultNameTemplate  = "{{ .ProjectName }}_{{ .Version }}_{{ .Os }}_{{ .Arch }}{{ with .Arm }}v{{ . }}{{ end }}"
	DefaultArchiveFormat = "tar.gz"
	DefaultChecksumName  = "checksums.txt"
	DefaultChecksumAlgo  = "sha256"
	DefaultChangelogSort = "asc"
)

// DefaultGoos is the target OS list when a build declares none
var DefaultGoos = []string{"linux", "darwin", "windows"}

// DefaultGoarch is the target arch list when a build declares none
var DefaultGoarch = []string{"amd64", "arm64"}

// DefaultChangelogExclude drops documentation and test commits from release notes
var DefaultChangelogExclude = []string{"^docs:", "^test:"}
