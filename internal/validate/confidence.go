package validate

import "github.com/insightdelivered/statement-engine/internal/models"

// Score rates how complete a parsed transaction looks. Weights: resolved
// date 30, a nonzero amount 30, balance present 20, description 10,
// tagged type 10. Markers are scored on date and balance only, since
// they legitimately carry no amount.
func Score(txn models.Transaction) int {
	score := 0
	if !txn.Date.IsZero() {
		score += 30
	}
	if txn.Balance.Valid {
		score += 20
	}

	if txn.IsMarker() {
		// A dated marker with a balance is as complete as it gets.
		if score == 50 {
			return 100
		}
		return score * 2
	}

	if !txn.MoneyIn.IsZero() || !txn.MoneyOut.IsZero() {
		score += 30
	}
	if txn.Description != "" {
		score += 10
	}
	if txn.Type != "" {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ScoreAll annotates every transaction in place and clamps the result.
func ScoreAll(txns []models.Transaction) {
	for i := range txns {
		txns[i].Confidence = Score(txns[i])
		txns[i].ClampConfidence()
	}
}
