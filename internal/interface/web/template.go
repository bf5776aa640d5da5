package web

import (
	"html/template"

	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
)

type homePageData struct {
	NextAddress  string
	Balance      domain.Balance
	Transactions []txRow
}

type txRow struct {
	Txid          string
	Sent          uint64
	Received      uint64
	Fee           uint64
	FeeRate       uint64
	ChainPosition string
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>hotwalletd</title>
</head>
<body>
<h1>hotwalletd</h1>
<h2>Wallet</h2>
<h3>Balance</h3>
<table border="1">
<thead><tr><th>state</th><th>sats</th></tr></thead>
<tbody>
<tr><td>confirmed</td><td>{{.Balance.Confirmed}}</td></tr>
<tr><td>trusted pending</td><td>{{.Balance.TrustedPending}}</td></tr>
<tr><td>untrusted pending</td><td>{{.Balance.UntrustedPending}}</td></tr>
<tr><td>immature</td><td>{{.Balance.Immature}}</td></tr>
</tbody>
</table>
<h3>Receive Address</h3>
<p>{{.NextAddress}}</p>
<h3>Transactions</h3>
<table border="1">
<thead>
<tr><th>txid</th><th>sent (sats)</th><th>received (sats)</th><th>fee (sats)</th><th>fee rate (sats/vb)</th><th>chain position</th></tr>
</thead>
<tbody>
{{range .Transactions}}
<tr><td>{{.Txid}}</td><td>{{.Sent}}</td><td>{{.Received}}</td><td>{{.Fee}}</td><td>{{.FeeRate}}</td><td>{{.ChainPosition}}</td></tr>
{{end}}
</tbody>
</table>
<h3>Create Transaction</h3>
<form method="post" action="/">
<label for="address">To address</label><br>
<input id="address" type="text" name="address"><br><br>
<label for="amount">Amount (sats)</label><br>
<input id="amount" type="text" name="amount" value="1000"><br><br>
<label for="fee_rate">Fee Rate (sats/vb)</label><br>
<input id="fee_rate" type="text" name="fee_rate" value="1"><br><br>
<label for="note">Note</label><br>
<input id="note" type="text" name="note"><br><br>
<input type="submit" value="Spend">
</form>
</body>
</html>`))
