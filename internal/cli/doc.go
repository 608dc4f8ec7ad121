// Package cli implements the pimon command-line interface.
//
// # Command Structure
//
// The root command opens the dashboard; subcommands cover the one-shot and
// setup paths:
//
//	pimon [config]        - Live dashboard for every configured Pi-hole
//	pimon status          - Fetch every server once and print tables
//	pimon init            - Add a server to the config file, creating it
//	pimon version         - Print build information
//	pimon completion ...  - Shell completion scripts
//
// # Config Discovery
//
// The config path comes from the positional argument, then --config, then
// config.Find (pimon.json/.yaml/.yml in the working directory, then
// ~/.config/pimon). A missing file or an empty server list is fatal: the
// error is printed with its suggestion and the process exits 1.
//
// # Sessions
//
// Both the dashboard and status build the same session: one Pi-hole client
// and one monitor.Coordinator per server, plus the optional bbolt snapshot
// cache used to seed coordinators at startup.
package cli
