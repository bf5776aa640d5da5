package application

import (
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// spendIntent is a validated spend request, constructed per spend call
// and consumed immediately.
type spendIntent struct {
	recipientScript []byte
	amount          uint64
	feeRatePerVByte uint64
	note            []byte
}

// parseSpendRequest validates the raw form fields of a spend request.
// Validation happens before any wallet lock is acquired; failures reject
// the request without touching wallet state.
func parseSpendRequest(
	req SpendRequest, params *chaincfg.Params,
) (*spendIntent, error) {
	addr, err := btcutil.DecodeAddress(req.Address, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("%w: wrong network", ErrInvalidAddress)
	}
	recipientScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, req.Amount)
	}

	feeRate, err := strconv.ParseUint(req.FeeRate, 10, 64)
	if err != nil || feeRate <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFeeRate, req.FeeRate)
	}

	note := []byte(req.Note)
	if len(note) > txscript.MaxDataCarrierSize {
		return nil, fmt.Errorf(
			"%w: %d bytes exceed the %d limit",
			ErrInvalidNote, len(note), txscript.MaxDataCarrierSize,
		)
	}

	return &spendIntent{
		recipientScript: recipientScript,
		amount:          amount,
		feeRatePerVByte: feeRate,
		note:            note,
	}, nil
}
