// Package api provides a client for accessing blockproj's services through
// its JSON-RPC API.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	jsonrpc "github.com/gorilla/rpc/json"

	"github.com/ValuedMammal/blockproj/cluster"
	"github.com/ValuedMammal/blockproj/collect"
)

type Config struct {
	Host    string
	Port    string
	Timeout int
}

type Client struct {
	httpclient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	httpclient := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	return &Client{httpclient: httpclient, cfg: cfg}
}

func (c *Client) Stop() error {
	_, err := c.doRPC("stop", nil)
	return err
}

func (c *Client) Status() (map[string]string, error) {
	r, err := c.doRPC("status", nil)
	if err != nil {
		return nil, err
	}
	var result map[string]string
	if err := json.Unmarshal(r, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Projection() (collect.Projection, error) {
	r, err := c.doRPC("projection", nil)
	if err != nil {
		return collect.Projection{}, err
	}
	var result collect.Projection
	if err := json.Unmarshal(r, &result); err != nil {
		return collect.Projection{}, err
	}
	return result, nil
}

func (c *Client) Audit() (collect.AuditResult, error) {
	r, err := c.doRPC("audit", nil)
	if err != nil {
		return collect.AuditResult{}, err
	}
	var result collect.AuditResult
	if err := json.Unmarshal(r, &result); err != nil {
		return collect.AuditResult{}, err
	}
	return result, nil
}

func (c *Client) Cluster(entries []cluster.RawEntry) (cluster.Result, error) {
	r, err := c.doRPC("cluster", struct {
		Entries []cluster.RawEntry
	}{Entries: entries})
	if err != nil {
		return cluster.Result{}, err
	}
	var result cluster.Result
	if err := json.Unmarshal(r, &result); err != nil {
		return cluster.Result{}, err
	}
	return result, nil
}

func (c *Client) Pause() error {
	_, err := c.doRPC("pause", nil)
	return err
}

func (c *Client) Unpause() error {
	_, err := c.doRPC("unpause", nil)
	return err
}

func (c *Client) SetDebug(d bool) error {
	_, err := c.doRPC("setdebug", d)
	return err
}

func (c *Client) Config() (map[string]interface{}, error) {
	r, err := c.doRPC("config", nil)
	if err != nil {
		return nil, err
	}
	v := make(map[string]interface{})
	if err := json.Unmarshal(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Client) Metrics() (map[string]interface{}, error) {
	r, err := c.doRPC("metrics", nil)
	if err != nil {
		return nil, err
	}
	v := make(map[string]interface{})
	if err := json.Unmarshal(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Client) doRPC(method string, args interface{}) (json.RawMessage, error) {
	b, err := jsonrpc.EncodeClientRequest(method, args)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc.EncodeClientRequest: %v", err)
	}

	url := "http://" + net.JoinHostPort(c.cfg.Host, c.cfg.Port)
	req, err := http.NewRequest("POST", url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var m json.RawMessage
	if err := jsonrpc.DecodeClientResponse(resp.Body, &m); err != nil {
		return nil, fmt.Errorf("jsonrpc.DecodeClientResponse: %v", err)
	}
	return m, nil
}
