package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hotwallet-network/hotwallet-daemon/internal/core/application"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// Handler is the thin inbound surface of the daemon: a view request on
// GET and a spend request on POST, both delegated to the wallet service.
type Handler struct {
	walletSvc application.WalletService
}

// NewHandler returns the http.Handler serving the wallet page.
func NewHandler(walletSvc application.WalletService) *Handler {
	return &Handler{walletSvc: walletSvc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.home(w, r)
	case http.MethodPost:
		h.spend(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	view, err := h.walletSvc.ViewWallet(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]txRow, 0, len(view.Transactions))
	for _, tx := range view.Transactions {
		position := "unconfirmed"
		if tx.ChainPosition.Confirmed {
			position = fmt.Sprintf("confirmed(%d)", tx.ChainPosition.Height)
		}
		rows = append(rows, txRow{
			Txid:          tx.Txid,
			Sent:          tx.Sent,
			Received:      tx.Received,
			Fee:           tx.Fee,
			FeeRate:       tx.FeeRate,
			ChainPosition: position,
		})
	}

	data := homePageData{
		NextAddress:  view.NextAddress,
		Balance:      view.Balance,
		Transactions: rows,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		log.WithError(err).Error("rendering home page")
	}
}

func (h *Handler) spend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txid, err := h.walletSvc.Spend(r.Context(), application.SpendRequest{
		Address: r.PostFormValue("address"),
		Amount:  r.PostFormValue("amount"),
		FeeRate: r.PostFormValue("fee_rate"),
		Note:    r.PostFormValue("note"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	log.WithField("txid", txid).Debug("spend accepted")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case application.IsValidationError(err),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInvalidFeeRate),
		errors.Is(err, wallet.ErrDustOutput),
		errors.Is(err, wallet.ErrNoteTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, explorer.ErrNetwork):
		status = http.StatusBadGateway
	case errors.Is(err, explorer.ErrTxRejected):
		status = http.StatusUnprocessableEntity
	}

	log.WithError(err).Warn("request failed")
	http.Error(w, fmt.Sprintf("something went wrong: %s", err), status)
}
