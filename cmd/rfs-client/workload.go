package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jabolina/go-rfs/pkg/rfs/core"
	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

var (
	success = color.New(color.FgGreen).SprintfFunc()
	warning = color.New(color.FgYellow).SprintfFunc()
	failure = color.New(color.FgRed, color.Bold).SprintfFunc()
)

// Random reads and writes over a fixed set of files.
type workload struct {
	operations int
	files      int
	maxPause   time.Duration
	random     *rand.Rand
	out        io.Writer
}

func newWorkload(operations, files int, maxPause time.Duration, out io.Writer) *workload {
	return &workload{
		operations: operations,
		files:      files,
		maxPause:   maxPause,
		random:     rand.New(rand.NewSource(time.Now().UnixNano())),
		out:        out,
	}
}

func (w *workload) pause() time.Duration {
	if w.maxPause <= 0 {
		return 0
	}
	return time.Duration(w.random.Int63n(int64(w.maxPause)))
}

func (w *workload) run(ctx context.Context, client *core.Client) {
	fmt.Fprintf(w.out, "%s starts\n", client.Name())
	for i := 0; i < w.operations; i++ {
		write := w.random.Intn(2) == 0
		fileName := fmt.Sprintf("File%d.txt", w.random.Intn(w.files))

		select {
		case <-ctx.Done():
			fmt.Fprintf(w.out, "%s\n", warning("%s interrupted after %d operations", client.Name(), i))
			return
		case <-time.After(w.pause()):
		}

		if write {
			w.write(client, fileName, fmt.Sprintf("%s message #%d", client.Name(), i))
		} else {
			w.read(client, fileName)
		}
	}
	fmt.Fprintf(w.out, "%s gracefully exits\n", client.Name())
}

func (w *workload) write(client *core.Client, fileName, data string) {
	res, err := client.Write(fileName, data)
	if err != nil {
		var insufficient *types.InsufficientReplicasError
		if errors.As(err, &insufficient) {
			fmt.Fprintf(w.out, "%s\n", failure("%s: %v", client.Name(), err))
			return
		}
		fmt.Fprintf(w.out, "%s\n", failure("%s: failed writing '%s': %v", client.Name(), fileName, err))
		return
	}

	if len(res.Failed) > 0 {
		fmt.Fprintf(w.out, "%s\n", warning("%s: wrote '%s' to %s, failed on %s",
			client.Name(), fileName, strings.Join(res.Acknowledged, ", "), strings.Join(res.Failed, ", ")))
		return
	}
	fmt.Fprintf(w.out, "%s\n", success("%s: wrote '%s' to %s", client.Name(), fileName, strings.Join(res.Acknowledged, ", ")))
}

func (w *workload) read(client *core.Client, fileName string) {
	res, err := client.Read(fileName)
	if err != nil {
		fmt.Fprintf(w.out, "%s\n", failure("%s: %v", client.Name(), err))
		return
	}

	if !res.Found {
		fmt.Fprintf(w.out, "%s\n", warning("%s: %s cannot find file '%s'", client.Name(), res.Server, fileName))
		return
	}
	fmt.Fprintf(w.out, "%s\n", success("%s: read '%s' from %s", client.Name(), fileName, res.Server))
	fmt.Fprintln(w.out, res.Content)
}
