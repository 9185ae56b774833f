package hgcli

import (
	"context"

	"go.uber.org/multierr"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/hiergram/hglib"
	"oss.terrastruct.com/hiergram/hgtarget"
)

func validateCmd(ctx context.Context, ms *xmain.State) (err error) {
	defer xdefer.Errorf(&err, "failed to validate")

	ms.Opts = xmain.NewOpts(ms.Env, ms.Opts.Flags.Args()[1:])
	if len(ms.Opts.Args) == 0 {
		return xmain.UsageErrorf("validate must be passed an input file to be validated")
	}

	inputPath := ms.Opts.Args[0]
	if inputPath != "-" {
		inputPath = ms.AbsPath(inputPath)
	}

	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return err
	}

	diagram, err := hgtarget.Parse(input, hgtarget.FormatFromPath(inputPath))
	if err != nil {
		return err
	}

	issues := multierr.Errors(hglib.Validate(ctx, diagram))
	for _, issue := range issues {
		ms.Log.Error.Printf("%s: %v", ms.HumanPath(inputPath), issue)
	}
	if len(issues) > 0 {
		return xmain.ExitErrorf(1, "found %d %s in %s", len(issues), plural(len(issues), "issue"), ms.HumanPath(inputPath))
	}
	ms.Log.Success.Printf("%s is valid", ms.HumanPath(inputPath))
	return nil
}

func plural(n int, s string) string {
	if n == 1 {
		return s
	}
	return s + "s"
}
