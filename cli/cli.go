package cli

// Version, BuildTime, GitCommit and GitBranch are set at link time. shipwright
// builds itself with app.versionPackage set to this package, e.g.:
//
//	-ldflags "-X 'github.com/flarebyte/shipwright/cli.Version=v1.2.3' -X 'github.com/flarebyte/shipwright/cli.GitCommit=abcdef1'"
var (
	Version   string
	BuildTime string
	GitCommit string
	GitBranch string
)
