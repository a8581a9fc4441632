package supervisor

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/webserv-go/webserv/internal/config"
)

// PrintBanner prints a one-time colorized startup summary listing every
// configured server and its port, the supervisor-side cosmetic role
// github.com/fatih/color plays elsewhere in the pack (nabbar-golib,
// sandrolain-events-bridge) — purely decorative, never parsed by a
// worker.
func PrintBanner(w io.Writer, cfgPath string, cfg *config.ConfigFile) {
	bold := color.New(color.Bold, color.FgCyan)
	bold.Fprintln(w, "webserv")
	fmt.Fprintf(w, "  config: %s\n", cfgPath)
	for _, srv := range cfg.Servers {
		name := srv.ServerName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "  %s %d  server_name=%s root=%s\n",
			color.GreenString("listening"), srv.Port, name, srv.Root)
	}
}
