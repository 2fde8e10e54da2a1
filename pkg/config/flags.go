package config

import "github.com/spf13/pflag"

// NewFlagSet declares the command-line flags. Flag names match the koanf
// keys so posflag can layer them over the other sources. Defaults shown in
// help come from Defaults; an unchanged flag never overrides file or env.
func NewFlagSet(name string) *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.StringP("input", "i", d["input"].(string), "CSV file with one edge per record")
	fs.Bool("directed", d["directed"].(bool), "treat each record as a directed edge")
	fs.IntP("top", "k", d["top"].(int), "number of nodes in the ranking")
	fs.IntP("workers", "j", d["workers"].(int), "sources traversed concurrently (0 = all CPUs)")
	fs.Bool("header", d["header"].(bool), "first CSV record is a header")
	fs.StringP("delimiter", "d", d["delimiter"].(string), "CSV field delimiter")
	fs.BoolP("watch", "w", d["watch"].(bool), "re-run when the input file changes")
	fs.Bool("web", d["web"].(bool), "serve results over HTTP")
	fs.IntP("port", "p", d["port"].(int), "port for --web")
	fs.String("verbosity", d["verbosity"].(string), "log level: trace, debug, info, warn, error")
	fs.CountP("verbose", "v", "increase log verbosity (repeatable)")
	fs.Bool("json", d["json"].(bool), "emit logs as JSON")

	return fs
}
