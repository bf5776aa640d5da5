package esplora

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"golang.org/x/sync/errgroup"
)

// Tip returns the chain tip from the recent-blocks endpoint. Height and
// hash come from the same response, so the pair is always consistent
// even when a block arrives mid-cycle.
func (e *esplora) Tip(ctx context.Context) (explorer.BlockRef, error) {
	url := fmt.Sprintf("%s/blocks", e.apiURL)
	status, resp, err := e.doRequest(ctx, "GET", url, "", nil)
	if err != nil {
		return explorer.BlockRef{}, err
	}
	if status != http.StatusOK {
		return explorer.BlockRef{}, fmt.Errorf("%w: %s", explorer.ErrProtocol, resp)
	}

	return parseTip(resp)
}

// Sync fetches the transaction history of every watched address with at
// most parallelism concurrent requests, then the chain tip. The tip is
// fetched last so that the update never references blocks beyond it.
func (e *esplora) Sync(
	ctx context.Context, req explorer.SyncRequest, parallelism int,
) (*explorer.SyncUpdate, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	var mtx sync.Mutex
	txsByID := make(map[string]explorer.TxInfo)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, addr := range req.Addresses {
		addr := addr
		g.Go(func() error {
			txs, err := e.getTransactionsForAddress(gctx, addr)
			if err != nil {
				return err
			}
			mtx.Lock()
			defer mtx.Unlock()
			for _, tx := range txs {
				txsByID[tx.Txid] = tx
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tip, err := e.Tip(ctx)
	if err != nil {
		return nil, err
	}

	txs := make([]explorer.TxInfo, 0, len(txsByID))
	for _, tx := range txsByID {
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Txid < txs[j].Txid })

	return &explorer.SyncUpdate{Tip: tip, Txs: txs}, nil
}

// confirmedPageSize is the number of confirmed transactions esplora
// returns per history page. A full page means there may be more.
const confirmedPageSize = 25

// getTransactionsForAddress fetches the full history of an address. The
// first page carries the mempool transactions plus the newest confirmed
// ones; older confirmed history is paged with the last seen txid as
// cursor until a short page is returned.
func (e *esplora) getTransactionsForAddress(
	ctx context.Context, addr string,
) ([]explorer.TxInfo, error) {
	url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, addr)
	page, err := e.getTransactionsPage(ctx, url)
	if err != nil {
		return nil, err
	}

	txs := page
	for {
		confirmed := confirmedOnly(page)
		if len(confirmed) < confirmedPageSize {
			return txs, nil
		}

		cursor := confirmed[len(confirmed)-1].Txid
		url := fmt.Sprintf("%s/address/%s/txs/chain/%s", e.apiURL, addr, cursor)
		page, err = e.getTransactionsPage(ctx, url)
		if err != nil {
			return nil, err
		}
		if len(page) <= 0 {
			return txs, nil
		}
		txs = append(txs, page...)
	}
}

func (e *esplora) getTransactionsPage(
	ctx context.Context, url string,
) ([]explorer.TxInfo, error) {
	status, resp, err := e.doRequest(ctx, "GET", url, "", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", explorer.ErrProtocol, resp)
	}

	return parseTransactions(resp)
}

func confirmedOnly(txs []explorer.TxInfo) []explorer.TxInfo {
	confirmed := make([]explorer.TxInfo, 0, len(txs))
	for _, tx := range txs {
		if tx.Confirmed {
			confirmed = append(confirmed, tx)
		}
	}
	return confirmed
}
