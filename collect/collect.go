/*
Package collect polls a mempool and block source on a schedule, runs each
poll through the block assembler, and reports the resulting projections and
any new block's audit score.
*/
package collect

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/madflojo/tasks"

	"github.com/ValuedMammal/blockproj/audit"
	"github.com/ValuedMammal/blockproj/blockassembler"
)

// MempoolGetter returns the current mempool as an ordered raw-entry slice
// along with the chain height it was observed at.
type MempoolGetter func() (height int64, entries []blockassembler.RawEntry, err error)

// ConfirmedTxidsGetter returns the non-coinbase txids confirmed at height.
type ConfirmedTxidsGetter func(height int64) ([]string, error)

// Config configures a Collector's data sources and poll cadence.
type Config struct {
	PollPeriod int `yaml:"pollperiod" json:"pollperiod"`

	GetMempool    MempoolGetter        `yaml:"-" json:"-"`
	GetConfirmed  ConfirmedTxidsGetter `yaml:"-" json:"-"`
	Logger        *log.Logger          `yaml:"-" json:"-"`
}

// Projection is one poll's result: the blocks the assembler would build
// from the mempool as observed at Height.
type Projection struct {
	Height uint64
	Blocks []blockassembler.BlockSummary
	Index  *blockassembler.Index
}

// AuditResult scores a newly confirmed block against the most recent
// projection seen for its height.
type AuditResult struct {
	Height uint64
	Score  float64
}

// Collector runs Config.GetMempool on a schedule and republishes the
// resulting projections. P and A must both be serviced while the
// Collector is running, or the internal goroutine blocks.
type Collector struct {
	P <-chan Projection
	A <-chan AuditResult
	E <-chan error

	cfg Config

	mux          sync.RWMutex
	lastHeight   int64
	lastTopTxids []string

	scheduler *tasks.Scheduler
	taskID    string
}

// NewCollector returns a Collector configured by cfg.
func NewCollector(cfg Config) *Collector {
	return &Collector{cfg: cfg, lastHeight: -1}
}

// Run starts polling in the background.
func (c *Collector) Run() error {
	logger := c.logger()

	pc := make(chan Projection)
	ac := make(chan AuditResult)
	ec := make(chan error)
	c.P = pc
	c.A = ac
	c.E = ec

	c.scheduler = tasks.New()
	id, err := c.scheduler.Add(&tasks.Task{
		Interval: time.Duration(c.cfg.PollPeriod) * time.Second,
		TaskFunc: func() error {
			c.poll(pc, ac, ec, logger)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	c.taskID = id
	return nil
}

// Stop halts polling. It does not close the Collector's channels.
func (c *Collector) Stop() {
	if c.scheduler == nil {
		return
	}
	c.scheduler.Del(c.taskID)
	c.scheduler.Stop()
}

func (c *Collector) logger() *log.Logger {
	if c.cfg.Logger != nil {
		return c.cfg.Logger
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

func (c *Collector) poll(pc chan<- Projection, ac chan<- AuditResult, ec chan<- error, logger *log.Logger) {
	height, entries, err := c.cfg.GetMempool()
	if err != nil {
		ec <- fmt.Errorf("GetMempool: %w", err)
		return
	}

	idx, pool, err := blockassembler.NewPool(entries)
	if err != nil {
		ec <- fmt.Errorf("NewPool: %w", err)
		return
	}

	blocks := blockassembler.New(pool, uint64(height)+1).Generate()
	logger.Printf("[DEBUG] projected %d block(s) from %d mempool entries at height %d", len(blocks), len(entries), height)

	pc <- Projection{Height: uint64(height), Blocks: blocks, Index: idx}

	c.mux.Lock()
	prevHeight := c.lastHeight
	projected := c.lastTopTxids
	c.lastHeight = height
	if len(blocks) > 0 {
		top := blocks[0]
		txids := make([]string, 0, len(top.Txn))
		for _, uid := range top.Txn {
			txids = append(txids, idx.ToTxid[uid])
		}
		c.lastTopTxids = txids
	}
	c.mux.Unlock()

	if prevHeight < 0 || height <= prevHeight || c.cfg.GetConfirmed == nil {
		return
	}

	confirmedTxids, err := c.cfg.GetConfirmed(height)
	if err != nil {
		ec <- fmt.Errorf("GetConfirmed: %w", err)
		return
	}

	confirmed := toHashes(confirmedTxids)
	projectedHashes := toHashes(projected)
	score := audit.BlockAudit(confirmed, projectedHashes)
	ac <- AuditResult{Height: uint64(height), Score: score}
}

func toHashes(txids []string) []chainhash.Hash {
	hashes := make([]chainhash.Hash, 0, len(txids))
	for _, s := range txids {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			continue
		}
		hashes = append(hashes, *h)
	}
	return hashes
}
