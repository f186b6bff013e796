package main

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/rpc"
	jsonrpc "github.com/gorilla/rpc/json"
	"github.com/rcrowley/go-metrics"

	"github.com/ValuedMammal/blockproj/cluster"
	"github.com/ValuedMammal/blockproj/collect"
)

// Service exposes BlockProj over JSON-RPC.
type Service struct {
	App  *BlockProj
	DLog *DebugLog
	Cfg  config
}

func (s *Service) ListenAndServe() error {
	methods := map[string]string{
		"stop":       "Service.Stop",
		"status":     "Service.Status",
		"projection": "Service.Projection",
		"audit":      "Service.Audit",
		"cluster":    "Service.Cluster",
		"pause":      "Service.Pause",
		"unpause":    "Service.Unpause",
		"setdebug":   "Service.SetDebug",
		"config":     "Service.Config",
		"metrics":    "Service.Metrics",
	}
	srv := rpc.NewServer()
	srv.RegisterCodec(jsonrpc.NewCodec(), "application/json")
	srv.RegisterService(s, "")
	srv.RegisterCustomNames(methods)
	http.Handle("/", srv)
	addr := net.JoinHostPort(s.Cfg.AppRPC.Host, s.Cfg.AppRPC.Port)
	s.DLog.Logger.Println("RPC server listening on", addr)
	return http.ListenAndServe(addr, nil)
}

func (s *Service) Stop(r *http.Request, args *struct{}, reply *struct{}) error {
	go s.App.Stop()
	return nil
}

func (s *Service) Status(r *http.Request, args *struct{}, reply *map[string]string) error {
	*reply = s.App.Status()
	return nil
}

func (s *Service) Projection(r *http.Request, args *struct{}, reply *collect.Projection) error {
	p, ok := s.App.Projection()
	if !ok {
		return fmt.Errorf("no projection available yet")
	}
	*reply = p
	return nil
}

func (s *Service) Audit(r *http.Request, args *struct{}, reply *collect.AuditResult) error {
	a, ok := s.App.Audit()
	if !ok {
		return fmt.Errorf("no audit score available yet")
	}
	*reply = a
	return nil
}

// ClusterArgs describes a raw mempool snapshot for cluster analysis: a
// flattened, caller-supplied list of txid/parent relationships, typically
// retrieved directly from bitcoind rather than through the projection
// pipeline, since cluster shape doesn't depend on fee ordering.
type ClusterArgs struct {
	Entries []cluster.RawEntry
}

func (s *Service) Cluster(r *http.Request, args *ClusterArgs, reply *cluster.Result) error {
	result, err := cluster.Analyze(args.Entries)
	if err != nil {
		return err
	}
	*reply = result
	return nil
}

func (s *Service) Pause(r *http.Request, args *struct{}, reply *struct{}) error {
	s.App.Pause(true)
	return nil
}

func (s *Service) Unpause(r *http.Request, args *struct{}, reply *struct{}) error {
	s.App.Pause(false)
	return nil
}

func (s *Service) SetDebug(r *http.Request, args *bool, reply *bool) error {
	s.DLog.SetDebug(*args)
	*reply = *args
	return nil
}

func (s *Service) Config(r *http.Request, args *struct{}, reply *interface{}) error {
	c := s.Cfg
	c.BitcoinRPC.Password = "********"
	*reply = c
	return nil
}

func (s *Service) Metrics(r *http.Request, args *struct{}, reply *metrics.Registry) error {
	*reply = metrics.DefaultRegistry
	return nil
}
