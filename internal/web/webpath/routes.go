package webpath

const (
	Home = "/"

	Api               = "/api"
	ApiStatus         = Api + "/status"
	ApiConnect        = Api + "/connect"
	ApiRuns           = Api + "/runs"
	ApiRunsCurrent    = ApiRuns + "/current"
	ApiRunsCurrentXLS = ApiRunsCurrent + "/report.xlsx"
)

func Path() map[string]string {
	return map[string]string{
		"Home":           Home,
		"ApiStatus":      ApiStatus,
		"ApiConnect":     ApiConnect,
		"ApiRuns":        ApiRuns,
		"ApiRunsCurrent": ApiRunsCurrent,
		"ApiReport":      ApiRunsCurrentXLS,
	}
}
