// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/api/restutil"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake/reverts"
)

type Staking struct {
	engine *stake.Engine
}

func New(engine *stake.Engine) *Staking {
	return &Staking{
		engine,
	}
}

func (s *Staking) handleConfig(w http.ResponseWriter, _ *http.Request) error {
	cfg, err := s.engine.Config()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &ConfigResponse{
		MinStakingTime:           cfg.MinStakingTime,
		AutomaticStakeOnMint:     cfg.AutomaticStakeOnMint,
		AutomaticStakeOnTransfer: cfg.AutomaticStakeOnTransfer,
		BaseURI:                  cfg.BaseURI,
		MintPrice:                cfg.MintPrice,
	})
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	var body CallerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.engine.Stake(id, body.Caller); err != nil {
		return convertStakeError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"staked": true})
}

func (s *Staking) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	var body CallerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.engine.Unstake(id, body.Caller); err != nil {
		return convertStakeError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"unstaked": true})
}

func (s *Staking) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	status, err := s.engine.TokenStatus(id)
	if err != nil {
		return convertStakeError(err)
	}
	return restutil.WriteJSON(w, &StatusResponse{
		ID:             id,
		Staked:         status.Staked,
		ManuallyStaked: status.ManuallyStaked,
		CanUnstake:     status.CanUnstake,
		FirstStakedAt:  status.FirstStakedAt,
		LastStakedAt:   status.LastStakedAt,
		Accumulated:    status.Accumulated,
	})
}

func (s *Staking) handleDuration(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(req)
	if err != nil {
		return restutil.BadRequest(err)
	}
	policy, err := stake.ParsePolicy(req.URL.Query().Get("policy"))
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "policy"))
	}
	duration, err := s.engine.StakeDuration(id, policy)
	if err != nil {
		return convertStakeError(err)
	}
	return restutil.WriteJSON(w, &DurationResponse{
		ID:       id,
		Policy:   policy.String(),
		Duration: duration,
	})
}

func parseTokenID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "id")
	}
	return id, nil
}

func convertStakeError(err error) error {
	switch {
	case errors.Is(err, reverts.ErrTokenDoesNotExist):
		return restutil.NotFound(err)
	case reverts.IsRevertErr(err):
		return restutil.Forbidden(err)
	default:
		return err
	}
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/config").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleConfig))
	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleStatus))
	sub.Path("/{id}/stake").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/{id}/unstake").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/{id}/duration").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleDuration))
}
