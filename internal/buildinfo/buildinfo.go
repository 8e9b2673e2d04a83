package buildinfo

const Graffiti = "               _                \n__      __ | | __ _ __   _ __  \n\\ \\ /\\ / / | |/ /| '_ \\ | '_ \\ \n \\ V  V /  |   < | | | || | | |\n  \\_/\\_/   |_|\\_\\|_| |_||_| |_|\n\n"

// Set at link time with -ldflags "-X github.com/go-sod/wknn/internal/buildinfo.BuildTag=..."
var (
	BuildTag string = "v0.0.0"
	Name     string = "WKNN"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
