package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ValuedMammal/blockproj/api"
)

func stop(args []string, c *api.Client) {
	const usage = `
blockproj stop

Stop the program.
`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		log.Fatal(err)
	}
}

func status(args []string, c *api.Client) {
	const usage = `
blockproj status

Show application status:

	result  : "ok" once a projection is available, else "pending".
	mempool : whether a projection is available.
	audit   : whether an audit score is available.
	paused  : whether projection updates are paused.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	result, err := c.Status()
	if err != nil {
		log.Fatal(err)
	}

	for _, k := range []string{"result", "mempool", "audit", "paused"} {
		fmt.Printf("%-8s: %s\n", k, result[k])
	}
}

func projection(args []string, c *api.Client) {
	const usage = `
blockproj projection

Show the block(s) projected from the current mempool.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	result, err := c.Projection()
	if err != nil {
		log.Fatal(err)
	}

	b, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))
}

func auditCmd(args []string, c *api.Client) {
	const usage = `
blockproj audit

Show the most recently confirmed block's audit score: the percentage of its
transactions that the last projection anticipated.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	result, err := c.Audit()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("height %d: %.1f%%\n", result.Height, result.Score)
}

func pause(args []string, c *api.Client) {
	const usage = `
blockproj pause

Pause projection updates, while still polling the mempool.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	if err := c.Pause(); err != nil {
		log.Fatal(err)
	}
}

func unpause(args []string, c *api.Client) {
	const usage = `
blockproj unpause

Resume projection updates after pausing.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	if err := c.Unpause(); err != nil {
		log.Fatal(err)
	}
}

func setDebug(args []string, c *api.Client) {
	const usage = `
blockproj setdebug BOOL

Turn on debug-level logging with "true"; turn off with "false".

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}
	on, err := strconv.ParseBool(f.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := c.SetDebug(on); err != nil {
		log.Fatal(err)
	}
}

func appConfig(args []string, c *api.Client) {
	const usage = `
blockproj config

Show app config settings.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	result, err := c.Config()
	if err != nil {
		log.Fatal(err)
	}

	b, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))
}

func appMetrics(args []string, c *api.Client) {
	const usage = `
blockproj metrics

Show app metrics.

`
	f := flag.NewFlagSet(args[0], flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		f.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	if err := f.Parse(args[1:]); err != nil {
		log.Fatal(err)
	}

	result, err := c.Metrics()
	if err != nil {
		log.Fatal(err)
	}

	b, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))
}
