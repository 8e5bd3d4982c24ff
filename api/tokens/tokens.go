// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/api/restutil"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/ledger"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake/reverts"
)

type Tokens struct {
	ledger *ledger.Ledger
	engine *stake.Engine
}

func New(ledger *ledger.Ledger, engine *stake.Engine) *Tokens {
	return &Tokens{
		ledger,
		engine,
	}
}

func (t *Tokens) handleMint(w http.ResponseWriter, req *http.Request) error {
	var body MintRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := t.ledger.Mint(body.Owner, body.Payment)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientPayment) {
			return restutil.Forbidden(err)
		}
		return err
	}
	return restutil.WriteJSON(w, &MintResponse{ID: id})
}

func (t *Tokens) handleSupply(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &SupplyResponse{
		Total: t.ledger.TotalSupply(),
		Funds: t.ledger.Funds(),
	})
}

func (t *Tokens) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	owner, err := t.ledger.OwnerOf(id)
	if err != nil {
		return convertLedgerError(err)
	}
	created, err := t.ledger.CreationTimestamp(id)
	if err != nil {
		return convertLedgerError(err)
	}
	autoStake, err := t.ledger.AutoStakeFlag(id)
	if err != nil {
		return convertLedgerError(err)
	}
	transferred, err := t.ledger.LastTransferAt(id)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, &Token{
		ID:             id,
		Owner:          owner,
		CreatedAt:      created,
		AutoStake:      autoStake,
		LastTransferAt: transferred,
	})
}

func (t *Tokens) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	var body TransferRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := t.ledger.Transfer(body.From, body.To, id); err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"transferred": true})
}

func (t *Tokens) handleTokenURI(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	uri, err := t.engine.TokenURI(id)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, &URIResponse{URI: uri})
}

func (t *Tokens) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body WithdrawRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := t.ledger.Withdraw(body.Caller)
	if err != nil {
		if errors.Is(err, ledger.ErrNotAuthorized) {
			return restutil.Forbidden(err)
		}
		return err
	}
	return restutil.WriteJSON(w, &WithdrawResponse{Amount: amount})
}

func parseTokenID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "id")
	}
	return id, nil
}

// convertLedgerError maps domain precondition failures onto http statuses.
func convertLedgerError(err error) error {
	switch {
	case errors.Is(err, reverts.ErrTokenDoesNotExist):
		return restutil.NotFound(err)
	case reverts.IsRevertErr(err):
		return restutil.Forbidden(err)
	default:
		return err
	}
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(t.handleSupply))
	sub.Path("").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(t.handleMint))
	sub.Path("/withdraw").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(t.handleWithdraw))
	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(t.handleGetToken))
	sub.Path("/{id}/transfer").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(t.handleTransfer))
	sub.Path("/{id}/uri").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(t.handleTokenURI))
}
