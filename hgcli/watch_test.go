package hgcli_test

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"oss.terrastruct.com/util-go/assert"
	"oss.terrastruct.com/util-go/xos"

	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
)

type watchResult struct {
	Diagram *hgtarget.Diagram `json:"diagram"`
	Err     string            `json:"err"`
}

func TestWatch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dir, cleanup := assert.TempDir(t)
	defer cleanup()
	writeFile(t, dir, "sample.json", sampleJSON)

	port := freePort(t)
	tms := testMain(dir, xos.NewEnv(nil), "--watch", "--host=127.0.0.1", "--port="+port, "sample.json")
	tms.Start(t, ctx)
	defer tms.Cleanup(t)

	c := dialWatch(t, ctx, "ws://127.0.0.1:"+port+"/watch")
	defer c.Close(websocket.StatusNormalClosure, "")

	var res watchResult
	err := wsjson.Read(ctx, c, &res)
	assert.Success(t, err)
	assert.String(t, "", res.Err)
	assert.Equal(t, geo.Point{X: 412, Y: 112}, *res.Diagram.Edges[0].To)

	writeFile(t, dir, "sample.json", strings.Replace(sampleJSON, `"x": 400, "y": 100`, `"x": 500, "y": 100`, 1))
	err = wsjson.Read(ctx, c, &res)
	assert.Success(t, err)
	assert.Equal(t, geo.Point{X: 512, Y: 112}, *res.Diagram.Edges[0].To)

	writeFile(t, dir, "sample.json", `{"nodes": [`)
	res = watchResult{}
	err = wsjson.Read(ctx, c, &res)
	assert.Success(t, err)
	assert.True(t, res.Diagram == nil)
	assert.True(t, strings.HasPrefix(res.Err, "failed to recompile: "))

	layout := readDiagram(t, dir, "sample.layout.json")
	assert.Equal(t, geo.Point{X: 512, Y: 112}, *layout.Edges[0].To)

	cancel()
	_ = tms.Wait(context.Background())
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Success(t, err)
	defer l.Close()
	return fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
}

func dialWatch(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	for {
		c, _, err := websocket.Dial(ctx, url, nil)
		if err == nil {
			return c
		}
		select {
		case <-ctx.Done():
			t.Fatalf("failed to dial %s: %v", url, err)
		case <-time.After(time.Millisecond * 50):
		}
	}
}
