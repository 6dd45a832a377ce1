package runner

import "github.com/projectdiscovery/gologger"

const banner = `
                  _       __                    __
   ____  ___  (_)___ _/ /_  _________  ____  / /_
  / __ \/ _ \/ / __ ` + "`" + `/ __ \/ ___/ __ \/ __ \/ __/
 / / / /  __/ / /_/ / / / (__  ) /_/ / /_/ / /_
/_/ /_/\___/_/\__, /_/ /_/____/ .___/\____/\__/
             /____/          /_/
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tprojectdiscovery.io\n\n")
}
