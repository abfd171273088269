package purchase

import (
	"errors"

	"overlaykit/internal/subscription"
	"overlaykit/internal/wallet"
)

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrCompensationFailed):
		return "compensation_failed"
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, subscription.ErrPackageNotFound):
		return "package_not_found"
	case errors.Is(err, wallet.ErrWalletNotFound):
		return "wallet_not_found"
	default:
		return "error"
	}
}
