package hgcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"oss.terrastruct.com/util-go/xhttp"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/hiergram/hglib"
	"oss.terrastruct.com/hiergram/hgtarget"
)

type watcherOpts struct {
	compileOpts *hglib.CompileOptions
	host        string
	port        string
	inputPath   string
	outputPath  string
}

// watcher re-runs the layout of one input file whenever it changes and pushes
// every new result to the websocket clients on /watch.
type watcher struct {
	ms *xmain.State
	watcherOpts

	fw *fsnotify.Watcher
	l  net.Listener

	compileCh chan struct{}

	clientsMu sync.Mutex
	clients   map[*wsclient]struct{}

	resMu sync.Mutex
	res   *compileResult
}

type compileResult struct {
	Diagram *hgtarget.Diagram `json:"diagram,omitempty"`
	Err     string            `json:"err"`

	hash string
}

func newWatcher(ms *xmain.State, opts watcherOpts) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	l, err := net.Listen("tcp", net.JoinHostPort(opts.host, opts.port))
	if err != nil {
		fw.Close()
		return nil, err
	}
	ms.Log.Success.Printf("listening on http://%v", l.Addr())

	return &watcher{
		ms:          ms,
		watcherOpts: opts,
		fw:          fw,
		l:           l,
		compileCh:   make(chan struct{}, 1),
		clients:     make(map[*wsclient]struct{}),
	}, nil
}

// run blocks until ctx is done or one of the loops fails.
func (w *watcher) run(ctx context.Context) error {
	defer w.fw.Close()

	m := http.NewServeMux()
	m.Handle("/", xhttp.HandlerFuncAdapter{Log: w.ms.Log, Func: w.handleRoot})
	m.Handle("/watch", xhttp.HandlerFuncAdapter{Log: w.ms.Log, Func: w.handleWatch})
	s := xhttp.NewServer(w.ms.Log.Warn, xhttp.Log(w.ms.Log, m))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return w.watchLoop(ctx)
	})
	eg.Go(func() error {
		return w.compileLoop(ctx)
	})
	eg.Go(func() error {
		return xhttp.Serve(ctx, time.Second*30, s, w.l)
	})
	return eg.Wait()
}

// watchLoop turns a burst of fsnotify events for the input into one layout
// request.
func (w *watcher) watchLoop(ctx context.Context) error {
	lastModified, err := w.ensureAddWatch(ctx)
	if err != nil {
		return err
	}
	w.ms.Log.Info.Printf("laying out %v...", w.ms.HumanPath(w.inputPath))
	w.requestCompile()

	burst := time.NewTimer(0)
	<-burst.C
	poll := time.NewTicker(time.Second * 10)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			// Replacing the file by rename drops the watch without an event.
			mt, err := w.ensureAddWatch(ctx)
			if err != nil {
				return err
			}
			if !mt.Equal(lastModified) {
				lastModified = mt
				w.requestCompile()
			}
		case ev, ok := <-w.fw.Events:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.ms.Log.Debug.Printf("received file system event %v", ev)
			mt, err := w.ensureAddWatch(ctx)
			if err != nil {
				return err
			}
			// See https://github.com/fsnotify/fsnotify/issues/15
			if ev.Op == fsnotify.Chmod && mt.Equal(lastModified) {
				continue
			}
			lastModified = mt
			burst.Reset(time.Millisecond * 16)
		case <-burst.C:
			w.ms.Log.Info.Printf("detected change in %s: laying out again...", w.ms.HumanPath(w.inputPath))
			w.requestCompile()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.ms.Log.Error.Printf("fsnotify error: %v", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *watcher) requestCompile() {
	select {
	case w.compileCh <- struct{}{}:
	default:
	}
}

// ensureAddWatch (re)adds the input to the watch list, retrying every second
// while the file is missing, and returns its modification time.
func (w *watcher) ensureAddWatch(ctx context.Context) (time.Time, error) {
	for {
		err := w.fw.Add(w.inputPath)
		if err == nil {
			var fi os.FileInfo
			fi, err = os.Stat(w.inputPath)
			if err == nil {
				return fi.ModTime(), nil
			}
		}
		w.ms.Log.Warn.Printf("failed to watch %s: %v (retrying in 1s)", w.ms.HumanPath(w.inputPath), err)

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
}

func (w *watcher) compileLoop(ctx context.Context) error {
	verb := "compile"
	for {
		select {
		case <-w.compileCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		res := &compileResult{}
		diagram, err := compile(ctx, w.ms, w.compileOpts, w.inputPath, w.outputPath)
		if err != nil {
			res.Err = fmt.Sprintf("failed to %s: %v", verb, err)
			w.ms.Log.Error.Print(res.Err)
		} else {
			res.Diagram = diagram
			res.hash, err = diagram.HashID()
			if err != nil {
				return err
			}
			if prev := w.getRes(); prev != nil && prev.Err == "" && prev.hash == res.hash {
				w.ms.Log.Debug.Printf("layout unchanged (%s), skipping broadcast", res.hash)
				continue
			}
		}
		verb = "recompile"
		w.broadcast(res)
	}
}

func (w *watcher) getRes() *compileResult {
	w.resMu.Lock()
	defer w.resMu.Unlock()
	return w.res
}

func (w *watcher) broadcast(res *compileResult) {
	w.resMu.Lock()
	w.res = res
	w.resMu.Unlock()

	w.clientsMu.Lock()
	defer w.clientsMu.Unlock()
	w.ms.Log.Info.Printf("broadcasting update to %d %s", len(w.clients), plural(len(w.clients), "client"))
	for cl := range w.clients {
		select {
		case cl.resultsCh <- struct{}{}:
		default:
		}
	}
}

// handleRoot serves the latest result as JSON.
func (w *watcher) handleRoot(hw http.ResponseWriter, r *http.Request) error {
	if r.URL.Path != "/" {
		return xhttp.Errorf(http.StatusNotFound, "not found", "%s not found", r.URL.Path)
	}
	res := w.getRes()
	if res == nil {
		return xhttp.Errorf(http.StatusServiceUnavailable, "layout in progress", "no layout yet")
	}
	hw.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(hw).Encode(res)
}

// handleWatch upgrades to a websocket and streams results until the client
// leaves or the server shuts down.
func (w *watcher) handleWatch(hw http.ResponseWriter, r *http.Request) error {
	c, err := websocket.Accept(hw, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusGoingAway, "server shutting down...")

	cl := &wsclient{
		c:         c,
		resultsCh: make(chan struct{}, 1),
	}
	w.clientsMu.Lock()
	w.clients[cl] = struct{}{}
	w.clientsMu.Unlock()
	defer func() {
		w.clientsMu.Lock()
		delete(w.clients, cl)
		w.clientsMu.Unlock()
	}()

	ctx := c.CloseRead(r.Context())
	go wsHeartbeat(ctx, c)
	if err := cl.writeLoop(ctx, w.getRes); err != nil && ctx.Err() == nil {
		w.ms.Log.Debug.Printf("websocket client dropped: %v", err)
	}
	return nil
}

type wsclient struct {
	c         *websocket.Conn
	resultsCh chan struct{}
}

func (cl *wsclient) writeLoop(ctx context.Context, latest func() *compileResult) error {
	for {
		if res := latest(); res != nil {
			wctx, cancel := context.WithTimeout(ctx, time.Second*30)
			err := wsjson.Write(wctx, cl.c, res)
			cancel()
			if err != nil {
				return err
			}
		}

		select {
		case <-cl.resultsCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func wsHeartbeat(ctx context.Context, c *websocket.Conn) {
	t := time.NewTicker(time.Second * 30)
	defer t.Stop()
	for {
		if err := c.Ping(ctx); err != nil {
			if ctx.Err() == nil {
				c.Close(websocket.StatusPolicyViolation, "missed heartbeat")
			}
			return
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}
	}
}
