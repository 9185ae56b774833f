package main

import (
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/hiergram/hgcli"
)

func main() {
	xmain.Main(hgcli.Run)
}
