package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ValuedMammal/blockproj/api"
	"github.com/ValuedMammal/blockproj/collect/corerpc"
	boltdb "github.com/ValuedMammal/blockproj/db/bolt"
)

const usage = `
blockproj [-c CONFIGFILE] [-d DATADIR] COMMAND [-h | -help] [args...]

Commands:
	start       (start the daemon)
	stop        (terminate the daemon)
	version     (show app version)
	status      (show application status)
	projection  (show the current block projection)
	audit       (show the most recent block audit score)
	pause       (pause projection updates while still polling)
	unpause     (resume projection updates after pausing)
	setdebug    (turn on/off debug-level logging)
	metrics     (show app metrics)
	config      (show app config settings)

`

const version = "0.1.0"

func main() {
	var configFile, dataDir string
	flag.CommandLine.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.CommandLine.PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
	flag.StringVar(&configFile, "c", "",
		fmt.Sprintf("Path to config file (alternatively, use %s env var).", configFileEnv))
	flag.StringVar(&dataDir, "d", "",
		fmt.Sprintf("Path to data directory (alternatively, use %s env var).", dataDirEnv))
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.CommandLine.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(configFile, dataDir)
	if err != nil {
		log.Fatal(err)
	}

	apiclient := api.NewClient(api.Config{
		Host:    cfg.AppRPC.Host,
		Port:    cfg.AppRPC.Port,
		Timeout: 15,
	})

	switch args[0] {
	case "start":
		runBlockProj(args, cfg)
	case "version":
		fmt.Println(version)
	case "stop":
		stop(args, apiclient)
	case "status":
		status(args, apiclient)
	case "projection":
		projection(args, apiclient)
	case "audit":
		auditCmd(args, apiclient)
	case "pause":
		pause(args, apiclient)
	case "unpause":
		unpause(args, apiclient)
	case "setdebug":
		setDebug(args, apiclient)
	case "metrics":
		appMetrics(args, apiclient)
	case "config":
		appConfig(args, apiclient)
	default:
		log.Fatalf("Invalid command '%s'", args[0])
	}
}

func runBlockProj(args []string, cfg config) {
	const usage = `
blockproj start

Start the daemon. It polls bitcoind's mempool on a schedule, projects the
next blocks, and scores each newly confirmed block against its most recent
projection.
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

	projDB, err := loadProjectionDB(cfg)
	if err != nil {
		log.Fatal(fmt.Errorf("loadProjectionDB: %v", err))
	}
	auditDB, err := loadAuditDB(cfg)
	if err != nil {
		log.Fatal(fmt.Errorf("loadAuditDB: %v", err))
	}

	logFileMode := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	f2, err := os.OpenFile(cfg.LogFile, logFileMode, 0666)
	if err != nil {
		log.Fatal(fmt.Errorf("opening logfile: %v", err))
	}
	dLog := NewDebugLog(f2, "", log.LstdFlags)

	rpcClient := corerpc.NewClient(cfg.BitcoinRPC)
	hub := api.NewHub(dLog.Logger)

	collectCfg := cfg.Collect
	collectCfg.GetMempool = rpcClient.PollMempoolAtHeight
	collectCfg.GetConfirmed = rpcClient.GetBlockTxids
	collectCfg.Logger = dLog.Logger

	app, err := NewBlockProj(BlockProjConfig{
		Collect:     collectCfg,
		Projections: projDB,
		Audits:      auditDB,
		Hub:         hub,
		logger:      dLog.Logger,
	})
	if err != nil {
		log.Fatal(fmt.Errorf("NewBlockProj: %v", err))
	}

	service := &Service{App: app, DLog: dLog, Cfg: cfg}
	router := api.NewRouter(app)
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeHTTP(c.Writer, c.Request)
	})

	errc := make(chan error)
	go func() {
		if err := app.Run(); err != nil {
			errc <- err
			return
		}
		<-app.done
		errc <- nil
	}()
	go func() { errc <- service.ListenAndServe() }()
	go func() {
		addr := net.JoinHostPort(cfg.AppHTTP.Host, cfg.AppHTTP.Port)
		dLog.Logger.Println("HTTP server listening on", addr)
		errc <- http.ListenAndServe(addr, router)
	}()

	sigc := make(chan os.Signal, 3)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigc
		app.Stop()
	}()

	err = <-errc
	app.Stop()
	if err != nil {
		dLog.Logger.Fatal(err)
	}
}

func loadProjectionDB(cfg config) (*boltdb.ProjectionDB, error) {
	const dbFileName = "projections.db"
	return boltdb.LoadProjectionDB(filepath.Join(cfg.DataDir, dbFileName))
}

func loadAuditDB(cfg config) (*boltdb.AuditDB, error) {
	const dbFileName = "audit.db"
	return boltdb.LoadAuditDB(filepath.Join(cfg.DataDir, dbFileName))
}
