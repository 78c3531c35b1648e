package buildinfo

const Graffiti = " _   _  _____ ______ _____ _____ \n| \\ | |/  ___|| ___ \\  ___/  __ \\\n|  \\| |\\ `--. | |_/ / |__ | /  \\/\n| . ` | `--. \\|  __/|  __|| |    \n| |\\  |/\\__/ /| |   | |___| \\__/\\\n\\_| \\_/\\____/ \\_|   \\____/ \\____/\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "NSPEC"
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
