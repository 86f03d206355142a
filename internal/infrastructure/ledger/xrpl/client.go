package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// client is a JSON-RPC gateway to a rippled-compatible ledger node.
type client struct {
	rpcURL string
	http   *http.Client
}

func NewLedgerGateway(rpcURL string) (ports.LedgerGateway, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("missing ledger rpc url")
	}
	return &client{
		rpcURL: rpcURL,
		http:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

type resultBase struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

type rpcError struct {
	Code    string
	Message string
}

func (e *rpcError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (c *client) call(ctx context.Context, method string, params any, out any) error {
	reqBody := rpcRequest{Method: method}
	if params != nil {
		reqBody.Params = []any{params}
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger rpc returned status %d", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("malformed ledger rpc response: %w", err)
	}

	var base resultBase
	if err := json.Unmarshal(envelope.Result, &base); err != nil {
		return fmt.Errorf("malformed ledger rpc result: %w", err)
	}
	if base.Status == "error" {
		return &rpcError{Code: base.Error, Message: base.ErrorMessage}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("malformed %s result: %w", method, err)
		}
	}
	return nil
}

func (c *client) GetAccountInfo(
	ctx context.Context, address string,
) (*ports.AccountInfo, error) {
	var result struct {
		AccountData struct {
			Account    string `json:"Account"`
			Balance    string `json:"Balance"`
			OwnerCount uint32 `json:"OwnerCount"`
			RegularKey string `json:"RegularKey"`
		} `json:"account_data"`
	}
	params := map[string]any{"account": address, "ledger_index": "validated"}
	if err := c.call(ctx, "account_info", params, &result); err != nil {
		return nil, err
	}
	return &ports.AccountInfo{
		Address:      result.AccountData.Account,
		BalanceDrops: result.AccountData.Balance,
		OwnerCount:   result.AccountData.OwnerCount,
		RegularKey:   result.AccountData.RegularKey,
	}, nil
}

func (c *client) GetAccountLines(
	ctx context.Context, address string,
) ([]domain.TokenAmount, error) {
	var result struct {
		Lines []struct {
			Account  string `json:"account"`
			Currency string `json:"currency"`
			Balance  string `json:"balance"`
		} `json:"lines"`
	}
	params := map[string]any{"account": address, "ledger_index": "validated"}
	if err := c.call(ctx, "account_lines", params, &result); err != nil {
		return nil, err
	}
	tokens := make([]domain.TokenAmount, 0, len(result.Lines))
	for _, line := range result.Lines {
		tokens = append(tokens, domain.TokenAmount{
			Currency: line.Currency,
			Issuer:   line.Account,
			Value:    line.Balance,
		})
	}
	return tokens, nil
}

func (c *client) GetReserveParams(ctx context.Context) (*ports.ReserveParams, error) {
	// server_state reports reserves in drops; server_info would return
	// floating-point XRP values.
	var result struct {
		State struct {
			ValidatedLedger struct {
				ReserveBase int64 `json:"reserve_base"`
				ReserveInc  int64 `json:"reserve_inc"`
			} `json:"validated_ledger"`
		} `json:"state"`
	}
	if err := c.call(ctx, "server_state", nil, &result); err != nil {
		return nil, err
	}
	return &ports.ReserveParams{
		BaseReserveDrops: fmt.Sprintf("%d", result.State.ValidatedLedger.ReserveBase),
		IncReserveDrops:  fmt.Sprintf("%d", result.State.ValidatedLedger.ReserveInc),
	}, nil
}

func (c *client) GetTransaction(ctx context.Context, hash string) (*ports.LedgerTx, error) {
	var result struct {
		Hash        string          `json:"hash"`
		Account     string          `json:"Account"`
		Destination string          `json:"Destination"`
		Amount      json.RawMessage `json:"Amount"`
		Memos       []struct {
			Memo struct {
				MemoData string `json:"MemoData"`
			} `json:"Memo"`
		} `json:"Memos"`
		Validated bool `json:"validated"`
	}
	params := map[string]any{"transaction": hash, "binary": false}
	if err := c.call(ctx, "tx", params, &result); err != nil {
		var rpcErr *rpcError
		if ok := asRPCError(err, &rpcErr); ok && rpcErr.Code == "txnNotFound" {
			return nil, ports.ErrTxNotFound
		}
		return nil, err
	}
	if !result.Validated {
		return nil, ports.ErrTxNotFound
	}

	tx := &ports.LedgerTx{
		Hash:        result.Hash,
		Account:     result.Account,
		Destination: result.Destination,
	}
	for _, memo := range result.Memos {
		tx.Memos = append(tx.Memos, memo.Memo.MemoData)
	}
	if len(result.Amount) > 0 {
		if result.Amount[0] == '"' {
			if err := json.Unmarshal(result.Amount, &tx.AmountDrops); err != nil {
				return nil, fmt.Errorf("malformed tx amount: %w", err)
			}
		} else {
			var token struct {
				Currency string `json:"currency"`
				Issuer   string `json:"issuer"`
				Value    string `json:"value"`
			}
			if err := json.Unmarshal(result.Amount, &token); err != nil {
				return nil, fmt.Errorf("malformed tx token amount: %w", err)
			}
			tx.TokenAmount = &domain.TokenAmount{
				Currency: token.Currency,
				Issuer:   token.Issuer,
				Value:    token.Value,
			}
		}
	}
	return tx, nil
}

// CreateWallet asks the node for a fresh keypair and falls back to local
// generation when the node is unreachable. The fallback changes the trust
// model from network-issued to locally-derived keys, hence the warning.
func (c *client) CreateWallet(ctx context.Context) (*ports.Wallet, error) {
	var result struct {
		AccountID  string `json:"account_id"`
		MasterSeed string `json:"master_seed"`
	}
	if err := c.call(ctx, "wallet_propose", map[string]any{}, &result); err != nil {
		log.WithError(err).Warn("wallet_propose failed, generating wallet locally")
		return generateWallet()
	}
	return &ports.Wallet{Address: result.AccountID, Secret: result.MasterSeed}, nil
}

func (c *client) SetSignerList(
	ctx context.Context, wallet ports.Wallet, entries []domain.SignerEntry, quorum uint32,
) error {
	signerEntries := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		signerEntries = append(signerEntries, map[string]any{
			"SignerEntry": map[string]any{
				"Account":      entry.Account,
				"SignerWeight": entry.Weight,
			},
		})
	}
	tx := map[string]any{
		"TransactionType": "SignerListSet",
		"Account":         wallet.Address,
		"SignerQuorum":    quorum,
		"SignerEntries":   signerEntries,
	}
	_, err := c.signAndSubmit(ctx, tx, wallet.Secret)
	return err
}

func (c *client) ClearRegularKey(ctx context.Context, address, secret string) error {
	// A SetRegularKey transaction without a RegularKey field removes the
	// delegation.
	tx := map[string]any{
		"TransactionType": "SetRegularKey",
		"Account":         address,
	}
	_, err := c.signAndSubmit(ctx, tx, secret)
	return err
}

func (c *client) SendPayment(ctx context.Context, payment ports.Payment) (string, error) {
	tx := map[string]any{
		"TransactionType": "Payment",
		"Account":         payment.From,
		"Destination":     payment.To,
	}
	if payment.Token != nil {
		tx["Amount"] = map[string]any{
			"currency": payment.Token.Currency,
			"issuer":   payment.Token.Issuer,
			"value":    payment.Token.Value,
		}
	} else {
		tx["Amount"] = payment.AmountDrops
	}
	if payment.Memo != "" {
		tx["Memos"] = []map[string]any{{
			"Memo": map[string]any{"MemoData": hexEncodeUpper(payment.Memo)},
		}}
	}
	return c.signAndSubmit(ctx, tx, payment.Secret)
}

func (c *client) signAndSubmit(
	ctx context.Context, tx map[string]any, secret string,
) (string, error) {
	var result struct {
		EngineResult string `json:"engine_result"`
		TxJSON       struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	params := map[string]any{"tx_json": tx, "secret": secret}
	if err := c.call(ctx, "submit", params, &result); err != nil {
		return "", err
	}
	if !isSuccessResult(result.EngineResult) {
		return "", fmt.Errorf("transaction rejected: %s", result.EngineResult)
	}
	return result.TxJSON.Hash, nil
}

func (c *client) SignForMultisig(
	ctx context.Context, txJSON, account, secret string,
) (string, error) {
	var tx map[string]any
	if err := json.Unmarshal([]byte(txJSON), &tx); err != nil {
		return "", fmt.Errorf("malformed tx json: %w", err)
	}
	var result struct {
		TxJSON json.RawMessage `json:"tx_json"`
	}
	params := map[string]any{"account": account, "secret": secret, "tx_json": tx}
	if err := c.call(ctx, "sign_for", params, &result); err != nil {
		return "", err
	}
	return string(result.TxJSON), nil
}

type signedTx struct {
	Signers []struct {
		Signer struct {
			Account       string `json:"Account"`
			SigningPubKey string `json:"SigningPubKey"`
			TxnSignature  string `json:"TxnSignature"`
		} `json:"Signer"`
	} `json:"Signers"`
	Memos []struct {
		Memo struct {
			MemoData string `json:"MemoData"`
		} `json:"Memo"`
	} `json:"Memos"`
}

func (c *client) DecodeSignedTx(
	ctx context.Context, blob string,
) (*ports.SignedTxInfo, error) {
	var tx signedTx
	if err := json.Unmarshal([]byte(blob), &tx); err != nil {
		return nil, fmt.Errorf("malformed signed tx blob: %w", err)
	}
	if len(tx.Signers) == 0 {
		return nil, fmt.Errorf("signed tx blob carries no signer")
	}
	info := &ports.SignedTxInfo{SignerAccount: tx.Signers[0].Signer.Account}
	for _, memo := range tx.Memos {
		info.Memos = append(info.Memos, memo.Memo.MemoData)
	}
	return info, nil
}

func (c *client) SubmitMultisigned(
	ctx context.Context, txJSON string, signedBlobs []string,
) (string, error) {
	var tx map[string]any
	if err := json.Unmarshal([]byte(txJSON), &tx); err != nil {
		return "", fmt.Errorf("malformed tx json: %w", err)
	}

	// Merge the Signers arrays of all partial blobs; the ledger requires them
	// sorted by signer account.
	signers := make([]any, 0, len(signedBlobs))
	accounts := make([]string, 0, len(signedBlobs))
	for _, blob := range signedBlobs {
		var signed signedTx
		if err := json.Unmarshal([]byte(blob), &signed); err != nil {
			return "", fmt.Errorf("malformed signed tx blob: %w", err)
		}
		for _, signer := range signed.Signers {
			signers = append(signers, map[string]any{
				"Signer": map[string]any{
					"Account":       signer.Signer.Account,
					"SigningPubKey": signer.Signer.SigningPubKey,
					"TxnSignature":  signer.Signer.TxnSignature,
				},
			})
			accounts = append(accounts, signer.Signer.Account)
		}
	}
	sort.Sort(&signerSorter{signers: signers, accounts: accounts})
	tx["Signers"] = signers
	tx["SigningPubKey"] = ""

	var result struct {
		EngineResult string `json:"engine_result"`
		TxJSON       struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	params := map[string]any{"tx_json": tx}
	if err := c.call(ctx, "submit_multisigned", params, &result); err != nil {
		return "", err
	}
	if !isSuccessResult(result.EngineResult) {
		return "", fmt.Errorf("multisigned transaction rejected: %s", result.EngineResult)
	}
	return result.TxJSON.Hash, nil
}

type signerSorter struct {
	signers  []any
	accounts []string
}

func (s *signerSorter) Len() int { return len(s.signers) }
func (s *signerSorter) Less(i, j int) bool {
	return s.accounts[i] < s.accounts[j]
}
func (s *signerSorter) Swap(i, j int) {
	s.signers[i], s.signers[j] = s.signers[j], s.signers[i]
	s.accounts[i], s.accounts[j] = s.accounts[j], s.accounts[i]
}

func isSuccessResult(engineResult string) bool {
	return len(engineResult) >= 3 && engineResult[:3] == "tes"
}

func asRPCError(err error, target **rpcError) bool {
	e, ok := err.(*rpcError)
	if ok {
		*target = e
	}
	return ok
}
