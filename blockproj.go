package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/ValuedMammal/blockproj/api"
	"github.com/ValuedMammal/blockproj/collect"
	boltdb "github.com/ValuedMammal/blockproj/db/bolt"
)

// BlockProjConfig configures a BlockProj's data sources.
type BlockProjConfig struct {
	Collect collect.Config

	Projections *boltdb.ProjectionDB
	Audits      *boltdb.AuditDB

	// Hub, if set, receives every new projection and audit result for
	// push delivery to websocket clients.
	Hub *api.Hub

	logger *log.Logger
}

// BlockProj orchestrates mempool polling, block projection, and audit
// scoring, persisting results as they arrive.
type BlockProj struct {
	collector *collect.Collector
	cfg       BlockProjConfig

	mux        sync.RWMutex
	projection *collect.Projection
	audit      *collect.AuditResult
	paused     bool

	done chan struct{}
}

// NewBlockProj constructs a BlockProj from cfg. Projections and Audits may
// be nil, in which case results are not persisted.
func NewBlockProj(cfg BlockProjConfig) (*BlockProj, error) {
	if cfg.Collect.GetMempool == nil {
		return nil, fmt.Errorf("blockproj: Collect.GetMempool is required")
	}
	return &BlockProj{
		cfg:       cfg,
		collector: collect.NewCollector(cfg.Collect),
		done:      make(chan struct{}),
	}, nil
}

// Run starts the collector and begins servicing its channels. It returns
// once the collector has started; errors surfacing afterward are logged,
// not returned, mirroring a long-running service's error-handling contract.
func (b *BlockProj) Run() error {
	if err := b.collector.Run(); err != nil {
		return err
	}
	go b.serviceChannels()
	return nil
}

// Stop halts the collector. It's idempotent.
func (b *BlockProj) Stop() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}
	b.collector.Stop()
}

// Pause suspends projection updates while still consuming the collector's
// channels, so the underlying poller never blocks.
func (b *BlockProj) Pause(p bool) {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.paused = p
}

func (b *BlockProj) isPaused() bool {
	b.mux.RLock()
	defer b.mux.RUnlock()
	return b.paused
}

// Status reports whether a projection and an audit score are available.
func (b *BlockProj) Status() map[string]string {
	b.mux.RLock()
	defer b.mux.RUnlock()
	status := "ok"
	if b.projection == nil {
		status = "pending"
	}
	return map[string]string{
		"result":  status,
		"mempool": boolStr(b.projection != nil),
		"audit":   boolStr(b.audit != nil),
		"paused":  boolStr(b.paused),
	}
}

func boolStr(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}

// Projection returns the most recent block projection, if any.
func (b *BlockProj) Projection() (collect.Projection, bool) {
	b.mux.RLock()
	defer b.mux.RUnlock()
	if b.projection == nil {
		return collect.Projection{}, false
	}
	return *b.projection, true
}

// Audit returns the most recent audit score, if any.
func (b *BlockProj) Audit() (collect.AuditResult, bool) {
	b.mux.RLock()
	defer b.mux.RUnlock()
	if b.audit == nil {
		return collect.AuditResult{}, false
	}
	return *b.audit, true
}

func (b *BlockProj) logger() *log.Logger {
	if b.cfg.logger != nil {
		return b.cfg.logger
	}
	return log.Default()
}

func (b *BlockProj) serviceChannels() {
	logger := b.logger()
	for {
		select {
		case proj, ok := <-b.collector.P:
			if !ok {
				return
			}
			if b.isPaused() {
				continue
			}
			b.mux.Lock()
			p := proj
			b.projection = &p
			b.mux.Unlock()
			if b.cfg.Projections != nil {
				if err := b.cfg.Projections.Put(proj.Height, proj.Blocks); err != nil {
					logger.Printf("[DEBUG] ProjectionDB.Put: %v", err)
				}
			}
			if b.cfg.Hub != nil {
				b.cfg.Hub.Publish(proj)
			}
		case a, ok := <-b.collector.A:
			if !ok {
				return
			}
			b.mux.Lock()
			ar := a
			b.audit = &ar
			b.mux.Unlock()
			if b.cfg.Audits != nil {
				if err := b.cfg.Audits.Put(a.Height, a.Score); err != nil {
					logger.Printf("[DEBUG] AuditDB.Put: %v", err)
				}
			}
			if b.cfg.Hub != nil {
				b.cfg.Hub.Publish(a)
			}
		case err, ok := <-b.collector.E:
			if !ok {
				return
			}
			logger.Printf("[DEBUG] collector error: %v", err)
		case <-b.done:
			return
		}
	}
}
