package hgcli

import (
	"fmt"
	"path/filepath"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/hiergram/lib/version"
)

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--watch=false] [--config=file.toml] file.json [file.layout.json | file.yaml]
  %[1]s validate file.json

%[1]s lays out the nodes and edges of file.json and writes the result to file.layout.json
unless an output path is provided. Sizes of parent nodes, absolute positions and edge
endpoints are derived on every run. Documents may be JSON or YAML (.yaml, .yml).

Use - to have %[1]s read from stdin or write to stdout.

Flags:
%[3]s

Subcommands:
  %[1]s validate file.json - Reports dangling references, duplicate ids and cycles in file.json
  %[1]s version - Prints the version
`, filepath.Base(ms.Name), version.Version, ms.Opts.Defaults())
}
