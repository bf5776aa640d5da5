package esplora

import (
	"encoding/json"
	"fmt"

	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
)

/**** BLOCK ****/

// block mirrors the JSON shape of an esplora block summary.
type block struct {
	ID     string `json:"id"`
	Height uint32 `json:"height"`
}

// parseTip extracts the newest block of a recent-blocks response.
func parseTip(body string) (explorer.BlockRef, error) {
	var blocks []block
	if err := json.Unmarshal([]byte(body), &blocks); err != nil {
		return explorer.BlockRef{}, fmt.Errorf(
			"%w: invalid block list: %s", explorer.ErrProtocol, err,
		)
	}
	if len(blocks) <= 0 {
		return explorer.BlockRef{}, fmt.Errorf(
			"%w: empty block list", explorer.ErrProtocol,
		)
	}
	return explorer.BlockRef{Height: blocks[0].Height, Hash: blocks[0].ID}, nil
}

/**** TRANSACTION ****/

// tx mirrors the JSON shape of an esplora transaction.
type tx struct {
	Txid     string `json:"txid"`
	Version  int32  `json:"version"`
	Locktime uint32 `json:"locktime"`
	Vin      []struct {
		Txid       string  `json:"txid"`
		Vout       uint32  `json:"vout"`
		IsCoinbase bool    `json:"is_coinbase"`
		Prevout    *txVout `json:"prevout"`
	} `json:"vin"`
	Vout   []txVout `json:"vout"`
	Size   int      `json:"size"`
	Weight int      `json:"weight"`
	Fee    uint64   `json:"fee"`
	Status txStatus `json:"status"`
}

type txVout struct {
	ScriptPubKey string `json:"scriptpubkey"`
	Value        uint64 `json:"value"`
}

type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

func (t tx) toTxInfo() explorer.TxInfo {
	inputs := make([]explorer.TxInput, 0, len(t.Vin))
	for _, in := range t.Vin {
		input := explorer.TxInput{
			Txid:       in.Txid,
			Vout:       in.Vout,
			IsCoinbase: in.IsCoinbase,
		}
		if in.Prevout != nil {
			input.PrevScript = in.Prevout.ScriptPubKey
			input.PrevValue = in.Prevout.Value
		}
		inputs = append(inputs, input)
	}

	outputs := make([]explorer.TxOutput, 0, len(t.Vout))
	for _, out := range t.Vout {
		outputs = append(outputs, explorer.TxOutput{
			Script: out.ScriptPubKey,
			Value:  out.Value,
		})
	}

	return explorer.TxInfo{
		Txid:        t.Txid,
		Version:     t.Version,
		Locktime:    t.Locktime,
		Inputs:      inputs,
		Outputs:     outputs,
		Size:        t.Size,
		Weight:      t.Weight,
		Fee:         t.Fee,
		Confirmed:   t.Status.Confirmed,
		BlockHeight: t.Status.BlockHeight,
		BlockHash:   t.Status.BlockHash,
		BlockTime:   t.Status.BlockTime,
	}
}

func parseTransactions(body string) ([]explorer.TxInfo, error) {
	var txs []tx
	if err := json.Unmarshal([]byte(body), &txs); err != nil {
		return nil, fmt.Errorf("%w: invalid transaction list: %s", explorer.ErrProtocol, err)
	}

	txInfos := make([]explorer.TxInfo, 0, len(txs))
	for _, t := range txs {
		txInfos = append(txInfos, t.toTxInfo())
	}
	return txInfos, nil
}
