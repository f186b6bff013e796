// Package corerpc implements mempool and block collection by talking to
// Bitcoin Core's JSON-RPC API directly.
package corerpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ValuedMammal/blockproj/blockassembler"
)

// Config holds the connection details for a Bitcoin Core RPC endpoint.
type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Timeout is the HTTP timeout in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
}

type request struct {
	Jsonrpc string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Id      int64       `json:"id"`
}

type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   interface{}     `json:"error"`
	Id      int64           `json:"id"`
}

// Client polls Bitcoin Core for mempool and block data.
type Client struct {
	currid     int64
	httpclient *http.Client
	cfg        Config
}

// NewClient returns a Client configured to reach the RPC endpoint in cfg.
func NewClient(cfg Config) *Client {
	c := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	return &Client{cfg: cfg, httpclient: c}
}

func (c *Client) newRequest(method string, params interface{}) *request {
	return &request{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		Id:      atomic.AddInt64(&c.currid, 1),
	}
}

// PollMempool returns the current mempool as an ordered slice of raw
// entries, ready for blockassembler.NewPool. Entries are sorted by txid so
// that uid assignment is deterministic across polls, independent of Go's
// randomized map iteration order and of whatever order bitcoind returns.
func (c *Client) PollMempool() ([]blockassembler.RawEntry, error) {
	_, entries, err := c.PollMempoolAtHeight()
	return entries, err
}

// PollMempoolAtHeight is a collect.MempoolGetter: it batches getrawmempool
// with getblockcount so the returned entries and height describe the same
// instant, to the extent bitcoind's mempool snapshot allows.
func (c *Client) PollMempoolAtHeight() (int64, []blockassembler.RawEntry, error) {
	reqs := []*request{
		c.newRequest("getrawmempool", []bool{true}),
		c.newRequest("getblockcount", nil),
	}
	resp, err := c.sendBatch(reqs)
	if err != nil {
		return 0, nil, err
	}

	var raw map[string]rawMempoolEntry
	if err := json.Unmarshal(resp[0], &raw); err != nil {
		return 0, nil, err
	}
	var height int64
	if err := json.Unmarshal(resp[1], &height); err != nil {
		return 0, nil, err
	}

	txids := make([]string, 0, len(raw))
	for txid := range raw {
		txids = append(txids, txid)
	}
	sort.Strings(txids)

	entries := make([]blockassembler.RawEntry, 0, len(raw))
	for _, txid := range txids {
		e := raw[txid]
		entries = append(entries, blockassembler.RawEntry{
			Txid:    txid,
			Fee:     uint64(e.Fee*coin + 0.5),
			Weight:  e.Weight,
			VSize:   e.VSize,
			Depends: e.Depends,
		})
	}
	return height, entries, nil
}

// sendBatch issues a batch RPC request, returning each result in the same
// order as reqs.
func (c *Client) sendBatch(reqs []*request) ([]json.RawMessage, error) {
	ids := make([]int64, len(reqs))
	for i, r := range reqs {
		ids[i] = r.Id
	}

	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, err
	}
	respBody, err := c.sendHTTP(body)
	if err != nil {
		return nil, err
	}

	resps := make([]response, len(reqs))
	if err := json.Unmarshal(respBody, &resps); err != nil {
		return nil, err
	}

	result := make([]json.RawMessage, len(reqs))
idLoop:
	for i, id := range ids {
		for _, resp := range resps {
			if resp.Id == id {
				if resp.Error != nil {
					return nil, fmt.Errorf("corerpc: %v", resp.Error)
				}
				result[i] = resp.Result
				continue idLoop
			}
		}
		return nil, fmt.Errorf("corerpc: unmatched batch request/response id")
	}
	return result, nil
}

// rawBlock is the subset of getblock's verbose=1 fields audit needs.
type rawBlock struct {
	Height int64    `json:"height"`
	Weight uint64   `json:"weight"`
	Tx     []string `json:"tx"`
}

// GetBlockTxids returns the non-coinbase txids confirmed at height, used to
// score a prior projection against what actually confirmed.
func (c *Client) GetBlockTxids(height int64) ([]string, error) {
	hashReq := c.newRequest("getblockhash", []int64{height})
	hashResp, err := c.send(hashReq)
	if err != nil {
		return nil, err
	}
	var hash string
	if err := json.Unmarshal(hashResp, &hash); err != nil {
		return nil, err
	}

	blockReq := c.newRequest("getblock", []interface{}{hash, 1})
	blockResp, err := c.send(blockReq)
	if err != nil {
		return nil, err
	}
	var b rawBlock
	if err := json.Unmarshal(blockResp, &b); err != nil {
		return nil, err
	}
	if len(b.Tx) == 0 {
		return nil, nil
	}
	return b.Tx[1:], nil // drop the coinbase
}

// send issues a single RPC request and returns its raw result.
func (c *Client) send(req *request) (json.RawMessage, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	respBody, err := c.sendHTTP(reqBody)
	if err != nil {
		return nil, err
	}
	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	if resp.Id != req.Id {
		return nil, fmt.Errorf("corerpc: mismatched RPC id")
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("corerpc: %v", resp.Error)
	}
	return resp.Result, nil
}

func (c *Client) sendHTTP(body []byte) ([]byte, error) {
	url := "http://" + net.JoinHostPort(c.cfg.Host, c.cfg.Port)
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("corerpc: %v: %s", resp.Status, b)
	}
	return b, nil
}
