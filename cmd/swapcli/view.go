package main

import (
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/pkg/amount"
)

type swapView struct {
	ID                    string `json:"id"`
	State                 string `json:"state"`
	ParentChain           string `json:"parent_chain"`
	L1RecipientAddress    string `json:"l1_recipient_address"`
	L1Amount              string `json:"l1_amount,omitempty"`
	L2Recipient           string `json:"l2_recipient,omitempty"`
	IsOpen                bool   `json:"is_open"`
	L2Amount              string `json:"l2_amount"`
	RequiredConfirmations uint32 `json:"required_confirmations"`
	Confirmations         uint32 `json:"confirmations"`
	L1TxID                string `json:"l1_txid,omitempty"`
	L1ClaimerHint         string `json:"l1_claimer_hint,omitempty"`
	L1ClaimerAddress      string `json:"l1_claimer_address,omitempty"`
	CreatedAt             int64  `json:"created_at"`
	UpdatedAt             int64  `json:"updated_at"`
}

func newSwapView(s domain.Swap) swapView {
	v := swapView{
		ID:                    s.ID.String(),
		State:                 s.State.String(),
		ParentChain:           s.ParentChain.String(),
		L1RecipientAddress:    s.L1RecipientAddress,
		L2Recipient:           s.L2Recipient,
		IsOpen:                s.IsOpen(),
		L2Amount:              amount.Format(s.L2Amount),
		RequiredConfirmations: s.RequiredConfirmations,
		Confirmations:         s.Confirmations,
		L1ClaimerHint:         s.L1ClaimerHint,
		L1ClaimerAddress:      s.L1ClaimerAddress,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
	if s.L1Amount != nil {
		v.L1Amount = amount.Format(*s.L1Amount)
	}
	if s.L1TxID != nil {
		v.L1TxID = s.L1TxID.String()
	}
	return v
}

type lockView struct {
	Outpoint string `json:"outpoint"`
	Value    uint64 `json:"value"`
	Amount   string `json:"amount"`
}
