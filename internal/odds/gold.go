package odds

// RerollsForGold is how many rerolls a gold budget buys at rerollCost each.
// Leftover gold that cannot pay for a full reroll is ignored.
func RerollsForGold(gold, rerollCost int) int {
	if gold <= 0 {
		return 0
	}
	if rerollCost <= 0 {
		rerollCost = DefaultRerollCost
	}
	return gold / rerollCost
}

// GoldForRerolls is the inverse of RerollsForGold.
func GoldForRerolls(rerolls, rerollCost int) int {
	if rerolls <= 0 {
		return 0
	}
	if rerollCost <= 0 {
		rerollCost = DefaultRerollCost
	}
	return rerolls * rerollCost
}
