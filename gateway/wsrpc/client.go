// Package wsrpc implements the ledger gateway over the chain node's
// JSON-RPC websocket API.
package wsrpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Elactrac/dotnation-sub001/gateway"
	"github.com/Elactrac/dotnation-sub001/log"
	"github.com/Elactrac/dotnation-sub001/signer"
	"github.com/Elactrac/dotnation-sub001/types"
)

const (
	methodBuildBatch     = "dotnation_buildBatch"
	methodBuildDonation  = "dotnation_buildDonation"
	methodSubmitAndWatch = "dotnation_submitAndWatch"
	methodTxStatus       = "dotnation_txStatus"
	methodCampaigns      = "dotnation_campaigns"
	methodCampaign       = "dotnation_campaign"

	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// rpcCodeExhaustsResources is the node's rejection code for transactions that
// exceed the per-block resource ceiling.
const rpcCodeExhaustsResources = 1010

// Client talks to one chain node. It is safe for concurrent use.
type Client struct {
	endpoint string
	contract string
	logger   log.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *rpcMessage
	subs    map[string]chan json.RawMessage
	nextID  uint64

	closeCh   chan struct{}
	closeOnce sync.Once
}

var _ gateway.Gateway = &Client{}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Dial connects to the node's websocket endpoint and binds the client to the
// given contract address.
func Dial(ctx context.Context, endpoint, contract string, logger log.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Client{
		endpoint: endpoint,
		contract: contract,
		logger:   logger,
		conn:     conn,
		pending:  make(map[uint64]chan *rpcMessage),
		subs:     make(map[string]chan json.RawMessage),
		closeCh:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. In-flight calls fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
		c.mu.Unlock()
	}()

	for {
		var msg rpcMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.closeCh:
			default:
				c.logger.Error("websocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return
		}

		switch {
		case msg.ID != 0:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &msg
				close(ch)
			}
		case msg.Method == methodTxStatus:
			var note struct {
				Subscription string          `json:"subscription"`
				Result       json.RawMessage `json:"result"`
			}
			if err := json.Unmarshal(msg.Params, &note); err != nil {
				c.logger.Error("malformed subscription notification", "error", err)
				continue
			}
			c.mu.Lock()
			ch, ok := c.subs[note.Subscription]
			c.mu.Unlock()
			// Non-blocking: a slow or finished watcher must never stall the
			// read loop, and late notifications for a finished subscription
			// are dropped.
			if ok {
				select {
				case ch <- note.Result:
				default:
					c.logger.Warn("dropping tx status notification",
						"subscription", note.Subscription)
				}
			}
		default:
			c.logger.Debug("ignoring unexpected message", "method", msg.Method)
		}
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	blob, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan *rpcMessage, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := rpcMessage{JSONRPC: "2.0", ID: id, Method: method, Params: blob}
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = c.conn.WriteJSON(&req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("write %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return gateway.ErrClosed
		}
		if resp.Error != nil {
			return mapRPCError(resp.Error)
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal %s result: %w", method, err)
			}
		}
		return nil
	}
}

func mapRPCError(e *rpcError) error {
	if e.Code == rpcCodeExhaustsResources || strings.Contains(e.Message, "ExhaustsResources") {
		return &gateway.ErrTxTooLarge{Detail: e.Message}
	}
	return e
}

type buildParams struct {
	Contract   string            `json:"contract"`
	Kind       string            `json:"kind"`
	Operations []json.RawMessage `json:"operations"`
	FeeCeiling uint64            `json:"fee_ceiling"`
}

type buildResult struct {
	Payload string `json:"payload"`
}

// BuildTransaction encodes ops into one transaction via the node.
func (c *Client) BuildTransaction(ctx context.Context, kind types.OperationKind, ops []types.OperationRequest, feeCeiling uint64) (*gateway.UnsignedTx, error) {
	if c.contract == "" {
		return nil, gateway.ErrNotReady
	}

	encoded := make([]json.RawMessage, len(ops))
	for i, op := range ops {
		blob, err := encodeOperation(op)
		if err != nil {
			return nil, fmt.Errorf("encode operation %d: %w", i, err)
		}
		encoded[i] = blob
	}

	var res buildResult
	err := c.call(ctx, methodBuildBatch, buildParams{
		Contract:   c.contract,
		Kind:       kind.String(),
		Operations: encoded,
		FeeCeiling: feeCeiling,
	}, &res)
	if err != nil {
		return nil, err
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(res.Payload, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &gateway.UnsignedTx{Kind: kind, Ops: ops, FeeCeiling: feeCeiling, Payload: payload}, nil
}

// encodeOperation renders one operation in the node's build API shape. Goal
// amounts are converted to plancks here so the node never sees display units.
func encodeOperation(op types.OperationRequest) (json.RawMessage, error) {
	switch o := op.(type) {
	case types.CreateCampaign:
		goal, err := types.ParseAmount(o.Goal)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"title":       o.Title,
			"description": o.Description,
			"goal":        goal.Plancks(),
			"deadline":    o.Deadline,
			"beneficiary": o.Beneficiary,
		})
	case types.WithdrawFunds:
		return json.Marshal(map[string]any{"campaign_id": o.CampaignID})
	default:
		return nil, fmt.Errorf("unknown operation kind %s", op.Kind())
	}
}

type submitParams struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

type txStatus struct {
	Status        string             `json:"status"`
	BlockHash     string             `json:"block_hash"`
	Events        []gateway.RawEvent `json:"events"`
	DispatchError *struct {
		Module string `json:"module"`
		Reason string `json:"reason"`
	} `json:"dispatch_error"`
}

// SignAndSubmit signs tx and submits it, subscribing to its status lifecycle.
func (c *Client) SignAndSubmit(ctx context.Context, tx *gateway.UnsignedTx, s signer.Signer) (<-chan gateway.StatusUpdate, error) {
	sig, err := s.Sign(tx.Payload)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	addr, err := s.Address()
	if err != nil {
		return nil, fmt.Errorf("derive signer address: %w", err)
	}

	var subID string
	err = c.call(ctx, methodSubmitAndWatch, submitParams{
		Payload:   "0x" + hex.EncodeToString(tx.Payload),
		Signature: "0x" + hex.EncodeToString(sig),
		Signer:    addr,
	}, &subID)
	if err != nil {
		return nil, err
	}

	raw := make(chan json.RawMessage, 8)
	c.mu.Lock()
	c.subs[subID] = raw
	c.mu.Unlock()

	out := make(chan gateway.StatusUpdate, 2)
	go c.watch(subID, raw, out)
	return out, nil
}

func (c *Client) watch(subID string, raw <-chan json.RawMessage, out chan<- gateway.StatusUpdate) {
	defer close(out)
	// Only deregister here; closing subscription channels belongs to the read
	// loop's teardown, so a late notification can never hit a closed channel.
	defer func() {
		c.mu.Lock()
		delete(c.subs, subID)
		c.mu.Unlock()
	}()

	for blob := range raw {
		var st txStatus
		if err := json.Unmarshal(blob, &st); err != nil {
			c.logger.Error("malformed tx status", "subscription", subID, "error", err)
			continue
		}
		switch st.Status {
		case "inBlock":
			out <- gateway.StatusUpdate{Stage: gateway.StageInBlock, BlockHash: st.BlockHash}
		case "finalized":
			update := gateway.StatusUpdate{
				Stage:     gateway.StageFinalized,
				BlockHash: st.BlockHash,
				Events:    st.Events,
			}
			if st.DispatchError != nil {
				update.DispatchErr = &gateway.DispatchError{
					Module: st.DispatchError.Module,
					Reason: st.DispatchError.Reason,
				}
			}
			out <- update
			return
		default:
			c.logger.Debug("intermediate tx status", "status", st.Status)
		}
	}
}

// SubmitDonation signs and submits a single donate call, waiting for
// finalization.
func (c *Client) SubmitDonation(ctx context.Context, campaignID uint32, amount types.Amount, s signer.Signer) error {
	if c.contract == "" {
		return gateway.ErrNotReady
	}
	var res buildResult
	err := c.call(ctx, methodBuildDonation, map[string]any{
		"contract":    c.contract,
		"campaign_id": campaignID,
		"value":       amount.Plancks(),
	}, &res)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(res.Payload, "0x"))
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	updates, err := c.SignAndSubmit(ctx, &gateway.UnsignedTx{Payload: payload}, s)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return gateway.ErrClosed
			}
			if update.Stage == gateway.StageFinalized {
				return update.DispatchErr
			}
		}
	}
}

// DecodeOperationEvent implements gateway.Gateway.
func (c *Client) DecodeOperationEvent(raw gateway.RawEvent) (types.DecodedEvent, error) {
	return gateway.DecodeEvent(raw)
}

// Campaigns returns all campaigns known to the contract.
func (c *Client) Campaigns(ctx context.Context) ([]types.Campaign, error) {
	if c.contract == "" {
		return nil, gateway.ErrNotReady
	}
	var out []types.Campaign
	err := c.call(ctx, methodCampaigns, map[string]any{"contract": c.contract}, &out)
	return out, err
}

// Campaign returns one campaign and its donations.
func (c *Client) Campaign(ctx context.Context, id uint32) (*types.Campaign, []types.Donation, error) {
	if c.contract == "" {
		return nil, nil, gateway.ErrNotReady
	}
	var res struct {
		Campaign  types.Campaign   `json:"campaign"`
		Donations []types.Donation `json:"donations"`
	}
	err := c.call(ctx, methodCampaign, map[string]any{"contract": c.contract, "campaign_id": id}, &res)
	if err != nil {
		return nil, nil, err
	}
	return &res.Campaign, res.Donations, nil
}
