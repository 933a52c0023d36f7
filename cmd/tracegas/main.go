package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosuri/uilive"
	"github.com/grafana/globalconf"
	"github.com/grafana/tracegas/agg"
	"github.com/grafana/tracegas/assemble"
	"github.com/grafana/tracegas/input"
	"github.com/grafana/tracegas/input/jq"
	"github.com/grafana/tracegas/logger"
	"github.com/grafana/tracegas/report"
	log "github.com/sirupsen/logrus"
)

var (
	version = "(none)"

	showVersion = flag.Bool("version", false, "print version string")
	confFile    = flag.String("config", "/etc/tracegas/tracegas.ini", "configuration file path")
	logLevel    = flag.String("log-level", "info", "log level. panic|fatal|error|warning|info|debug")

	depth      = flag.Int("depth", -1, "only include steps with this call depth (eg 1 for top-level). -1 includes all depths")
	sortKey    = flag.String("sort", "total", "sort output by: total gas, count, avg gas, or op")
	limit      = flag.Int("limit", 0, "only show this many rows. use 0 to disable")
	tsv        = flag.Bool("tsv", false, "output as TSV: op<TAB>count<TAB>total<TAB>avg<TAB>min<TAB>max")
	maxPending = flag.Int("max-pending", 0, "abort when this many steps are in flight at once. use 0 to disable")
	progress   = flag.Bool("progress", false, "show live progress on stderr while aggregating")
)

func init() {
	formatter := &logger.TextFormatter{}
	formatter.TimestampFormat = "2006-01-02 15:04:05.000"
	log.SetFormatter(formatter)
	log.SetLevel(log.InfoLevel)
}

func main() {
	flag.Usage = func() {
		fmt.Println("tracegas")
		fmt.Println()
		fmt.Println("Aggregates per-opcode gasCost from a geth-style opcode trace JSON")
		fmt.Println()
		fmt.Println("The trace is expected to contain .structLogs[] entries with at least")
		fmt.Println("`op` (string) and `gasCost` (number), and optionally `depth` (number).")
		fmt.Println("Tokens are streamed via `jq --stream`, so jq must be on PATH and")
		fmt.Println("arbitrarily large traces are fine.")
		fmt.Println()
		fmt.Printf("Usage:\n\n")
		fmt.Printf("  tracegas [flags] <trace.json>\n\n")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("tracegas trace.json")
		fmt.Println("tracegas -sort count -limit 50 trace.json")
		fmt.Println("tracegas -depth 1 trace.json")
		fmt.Println("tracegas -tsv trace.json > opcode_gas.tsv")
		fmt.Println()
		fmt.Println("Generating the trace (mega-evme):")
		fmt.Println("mega-evme replay <txhash> --rpc https://mainnet.megaeth.com/rpc --trace --tracer opcode --trace.output trace.json")
		fmt.Println()
		fmt.Println("Notes:")
		fmt.Println(" * gasCost is whatever the tracer reports per step. For CALL-like opcodes")
		fmt.Println("   it can include gas forwarded to the callee, so totals may exceed the")
		fmt.Println("   transaction's gasUsed. Use -depth to analyze per call frame.")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("tracegas (version: %s - runtime: %s)\n", version, runtime.Version())
		return
	}

	jq.ConfigSetup()

	// Only try and parse the conf file if it exists
	path := ""
	if _, err := os.Stat(*confFile); err == nil {
		path = *confFile
	}
	config, err := globalconf.NewWithOptions(&globalconf.Options{
		Filename:  path,
		EnvPrefix: "TRACEGAS_",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: configuration file error: %s\n", err)
		os.Exit(1)
	}
	config.ParseAll()

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("failed to parse log-level, %s", err.Error())
	}
	log.SetLevel(lvl)

	if err := jq.ConfigProcess(); err != nil {
		log.Fatal(err.Error())
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if !report.ValidKey(*sortKey) {
		log.Errorf("invalid sort key %q", *sortKey)
		flag.Usage()
		os.Exit(2)
	}
	trace := flag.Arg(0)

	src, err := jq.New(context.Background(), jq.CliConfig, trace, *depth >= 0)
	if err != nil {
		log.Error(err.Error())
		os.Exit(2)
	}

	asmCfg := assemble.Config{
		CategoryField: "op",
		ValueField:    "gasCost",
		MaxPending:    *maxPending,
	}
	if *depth >= 0 {
		asmCfg.FilterField = "depth"
		asmCfg.FilterValue = strconv.Itoa(*depth)
	}
	asm := assemble.New(asmCfg)
	aggregator := agg.New()

	var n counters
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if *progress {
		wg.Add(1)
		go showProgress(&n, wg, ctx)
	}

	runErr := run(src, asm, aggregator, &n)
	cancel()
	wg.Wait()
	src.Close()

	if asm.Reopened() > 0 {
		log.Warnf("%d step indices reappeared after completing. the trace stream is malformed, results may double count steps", asm.Reopened())
	}
	log.Debugf("tokens=%d records=%d filtered=%d unparseable=%d still-pending=%d",
		atomic.LoadUint64(&n.triples), atomic.LoadUint64(&n.records), asm.Filtered(), asm.Dropped(), asm.Pending())

	if runErr != nil {
		// partial aggregation is worthless here, don't print it
		log.Error(runErr.Error())
		if perr, ok := runErr.(*input.ProcessError); ok {
			os.Exit(perr.Code)
		}
		os.Exit(2)
	}

	rows := report.Rows(aggregator.Totals())
	report.Sort(rows, *sortKey)
	rows = report.Limit(rows, *limit)
	if *tsv {
		report.TSV(os.Stdout, rows)
	} else {
		report.Table(os.Stdout, rows)
	}
}

type counters struct {
	triples uint64
	records uint64
}

// run drains the source one triple at a time: reassemble, filter, fold.
// Returns nil once the source is cleanly exhausted.
func run(src input.Source, asm *assemble.Assembler, aggregator *agg.Aggregator, n *counters) error {
	for {
		t, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		atomic.AddUint64(&n.triples, 1)
		rec, done, err := asm.Ingest(t)
		if err != nil {
			return err
		}
		if done {
			aggregator.Record(rec.Category, rec.Value)
			atomic.AddUint64(&n.records, 1)
		}
	}
}

func showProgress(n *counters, wg *sync.WaitGroup, ctx context.Context) {
	start := time.Now()

	writer := uilive.New()
	writer.Out = os.Stderr
	writer.Start()

	printLine := func() {
		elapsed := time.Since(start)
		triples := atomic.LoadUint64(&n.triples)
		records := atomic.LoadUint64(&n.records)
		rate := float64(triples) / elapsed.Seconds()
		fmt.Fprintf(writer, "tokens=%d steps=%d rate=%.0f tokens/s elapsed=%v\n", triples, records, rate, elapsed.Round(time.Second))
	}

	tick := time.NewTicker(time.Second)
	for {
		select {
		case <-tick.C:
			printLine()
			writer.Flush()
		case <-ctx.Done():
			printLine()
			writer.Stop()
			tick.Stop()
			wg.Done()
			return
		}
	}
}
