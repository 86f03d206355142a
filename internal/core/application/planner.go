package application

import (
	"math/big"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/google/uuid"
)

// planLockItems computes the planned transfers for the given assets: one
// native item per asset with an inheritable balance, one token item per token
// line with an inheritable amount. Items with a planned amount <= 0 are
// omitted entirely.
func planLockItems(assets []domain.Asset, now time.Time) ([]domain.LockItem, error) {
	items := make([]domain.LockItem, 0, len(assets))
	for _, asset := range assets {
		balance, err := ParseDrops(asset.BalanceDrops)
		if err != nil {
			return nil, err
		}
		reserve := new(big.Int)
		if asset.ReserveAmount != "" {
			reserve, err = ToMinorUnits(asset.ReserveAmount)
			if err != nil {
				return nil, err
			}
		}

		if planned := AvailableBalance(balance, reserve); planned.Sign() > 0 {
			items = append(items, domain.LockItem{
				ID:            uuid.NewString(),
				CaseID:        asset.CaseID,
				AssetID:       asset.ID,
				AssetAddress:  asset.Address,
				PlannedAmount: planned.String(),
				Status:        domain.LockItemStatusPending,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		for _, token := range asset.Tokens {
			planned := token.Value
			if reserved := asset.ReservedToken(token.Key()); reserved != nil {
				planned, err = SubtractTokenDecimal(token.Value, reserved.Value)
				if err != nil {
					return nil, err
				}
			}
			if !IsPositiveDecimal(planned) {
				continue
			}
			items = append(items, domain.LockItem{
				ID:           uuid.NewString(),
				CaseID:       asset.CaseID,
				AssetID:      asset.ID,
				AssetAddress: asset.Address,
				Token: &domain.TokenAmount{
					Currency: token.Currency,
					Issuer:   token.Issuer,
					Value:    planned,
				},
				PlannedAmount: planned,
				Status:        domain.LockItemStatusPending,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}
	return items, nil
}
