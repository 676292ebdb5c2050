package pubsub

import (
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/pkg/amount"
)

func getSwapPayload(swap domain.Swap) map[string]interface{} {
	payload := map[string]interface{}{
		"id":                     swap.ID.String(),
		"parent_chain":           swap.ParentChain.String(),
		"l1_recipient_address":   swap.L1RecipientAddress,
		"l2_amount":              swap.L2Amount,
		"l2_amount_formatted":    amount.Format(swap.L2Amount),
		"is_open":                swap.IsOpen(),
		"required_confirmations": swap.RequiredConfirmations,
		"confirmations":          swap.Confirmations,
		"state":                  swap.State.String(),
	}
	if !swap.IsOpen() {
		payload["l2_recipient"] = swap.L2Recipient
	}
	if swap.L1Amount != nil {
		payload["l1_amount"] = *swap.L1Amount
	}
	if swap.L1TxID != nil {
		payload["l1_txid"] = swap.L1TxID.String()
	}
	if len(swap.L1ClaimerAddress) > 0 {
		payload["l1_claimer_address"] = swap.L1ClaimerAddress
	}
	return payload
}
